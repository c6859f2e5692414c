// Command socialpulse-mcp exposes the socialpulse HTTP API as MCP tools over
// stdio.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiClient calls the socialpulse API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func main() {
	apiURL := os.Getenv("SOCIALPULSE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	client := &apiClient{
		baseURL: apiURL,
		apiKey:  os.Getenv("SOCIALPULSE_API_KEY"),
		// A scrape may retry with a browser per attempt; stay above the
		// server's request deadline.
		http: &http.Client{Timeout: 180 * time.Second},
	}

	s := server.NewMCPServer(
		"socialpulse",
		"0.1.0",
		server.WithToolCapabilities(false),
	)
	registerTools(s, client)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func registerTools(s *server.MCPServer, c *apiClient) {
	s.AddTool(mcp.NewTool("instagram_profile",
		mcp.WithDescription("Get follower, following and post counts of a public Instagram profile."),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("Instagram username without the leading @"),
		),
	), c.tool("/api/profile", "username"))

	s.AddTool(mcp.NewTool("instagram_reel",
		mcp.WithDescription("Get likes, comment count and upload date of a public Instagram post or reel."),
		mcp.WithString("reel_url",
			mcp.Required(),
			mcp.Description("Full URL of the post or reel"),
		),
	), c.tool("/api/reel", "reel_url"))

	s.AddTool(mcp.NewTool("tiktok_profile",
		mcp.WithDescription("Get display name, follower, following and like counts, bio and link of a public TikTok profile."),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("TikTok username, with or without the leading @"),
		),
	), c.tool("/api/tiktok_profile", "username"))
}

// tool returns a handler forwarding the required string argument param as
// the query parameter of the same name.
func (c *apiClient) tool(path, param string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value, err := request.RequireString(param)
		if err != nil || value == "" {
			return mcp.NewToolResultError(param + " is required"), nil
		}

		status, body, err := c.get(ctx, path, url.Values{param: {value}})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			var e struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(body, &e) == nil && e.Error != "" {
				return mcp.NewToolResultError(e.Error), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("API returned HTTP %d", status)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// get sends a GET request to the API and returns the status and body.
func (c *apiClient) get(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
