package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aardel/launchpad/internal/launcher"
	"github.com/aardel/launchpad/internal/network"
)

type launchItemInput struct {
	Item      string `json:"item" jsonschema:"Item ID or unique item name."`
	Profile   string `json:"profile,omitempty" jsonschema:"Network profile: local, tailscale, vpn or custom. Default: the configured profile."`
	AutoRoute *bool  `json:"auto_route,omitempty" jsonschema:"Switch bookmarks to the first reachable profile. Default: the configured setting."`
}

type launchItemOutput struct {
	Result *launcher.Result `json:"result"`
}

func (s *LaunchPadMCPServer) registerLaunchTools() {
	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name: "launchpad_launch_item",
		Description: "Launch an item on the user's machine: open a bookmark in the browser, " +
			"an SSH session in a terminal, or start an app. Stored passwords are used locally and never returned.",
	}, s.handleLaunchItem)
}

func (s *LaunchPadMCPServer) handleLaunchItem(ctx context.Context, _ *sdkmcp.CallToolRequest, input launchItemInput) (*sdkmcp.CallToolResult, launchItemOutput, error) {
	if !s.policy.CanLaunch() {
		return nil, launchItemOutput{}, fmt.Errorf("launching is not allowed by policy (access_mode: %s)", s.policy.AccessMode)
	}

	item, err := s.findItem(input.Item)
	if err != nil {
		return nil, launchItemOutput{}, err
	}

	opts := s.deps.Defaults
	if input.Profile != "" {
		if opts.Profile, err = network.ParseProfile(input.Profile); err != nil {
			return nil, launchItemOutput{}, err
		}
	}
	if input.AutoRoute != nil {
		opts.AutoRoute = *input.AutoRoute
	}

	if err := s.takeLaunch(); err != nil {
		return nil, launchItemOutput{}, err
	}

	res, err := s.deps.Launcher.Launch(ctx, item, opts)
	if err != nil {
		return nil, launchItemOutput{}, errors.New(launcher.Describe(err))
	}
	return nil, launchItemOutput{Result: res}, nil
}
