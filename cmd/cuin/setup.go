package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/urfave/cli/v2"
)

// serverName is the key cuin registers under in agent MCP configs.
const serverName = "cuin"

// agentKind is how an agent's MCP servers are configured.
type agentKind int

const (
	// agentCLI agents are configured with `<binary> mcp add`.
	agentCLI agentKind = iota
	// agentFile agents read a JSON config file.
	agentFile
)

// agent describes one MCP-capable coding agent.
type agent struct {
	id      string
	name    string
	kind    agentKind
	binary  string
	markers []string      // project dirs whose presence means the agent is in use
	config  func() string // config file path for file agents
	key     string        // JSON key holding the server map
	extra   map[string]string
}

// detected is an agent found on this machine or in this project.
type detected struct {
	agent
	configPath string
	configured bool
}

// Replaceable for testing.
var (
	lookPath = exec.LookPath
	statPath = os.Stat
	runAgent = func(name string, args ...string) error {
		cmd := exec.Command(name, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
)

var agents = []agent{
	{id: "claude_code", name: "Claude Code", kind: agentCLI, binary: "claude"},
	{id: "openai_codex", name: "OpenAI Codex", kind: agentCLI, binary: "codex"},
	{
		id: "vscode", name: "VS Code", kind: agentFile,
		markers: []string{".vscode"},
		config:  func() string { return filepath.Join(".vscode", "mcp.json") },
		key:     "servers",
		extra:   map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", name: "Cursor", kind: agentFile,
		markers: []string{".cursor"},
		config:  func() string { return filepath.Join(".cursor", "mcp.json") },
		key:     "mcpServers",
	},
	{id: "claude_desktop", name: "Claude Desktop", kind: agentFile, config: desktopConfigPath, key: "mcpServers"},
}

func desktopConfigPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

func setupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Register the cuin MCP server with detected coding agents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "project the server analyzes (default: current directory)"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "configure every detected agent without prompting"},
		},
		Action: func(c *cli.Context) error {
			path, err := inputPath(c, "")
			if err != nil {
				return exitError(err)
			}
			runSetup(c.App.Reader, c.App.Writer, path, c.Bool("yes"))
			return nil
		},
	}
}

// detectAgents finds agents in use. Project agents are found by their
// marker directory; Claude Desktop by its config directory.
func detectAgents() []detected {
	var found []detected
	for _, a := range agents {
		switch a.kind {
		case agentCLI:
			if _, err := lookPath(a.binary); err == nil {
				found = append(found, detected{agent: a, configured: hasServer(".mcp.json", "mcpServers")})
			}
		case agentFile:
			path, ok := fileAgentConfig(a)
			if ok {
				found = append(found, detected{agent: a, configPath: path, configured: hasServer(path, a.key)})
			}
		}
	}
	return found
}

func fileAgentConfig(a agent) (string, bool) {
	for _, m := range a.markers {
		if _, err := statPath(m); err == nil {
			return a.config(), true
		}
	}
	if len(a.markers) == 0 {
		path := a.config()
		if _, err := statPath(filepath.Dir(path)); err == nil {
			return path, true
		}
	}
	return "", false
}

// hasServer reports whether the JSON config at path already registers cuin.
func hasServer(path, key string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return false
	}
	servers, _ := cfg[key].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

// serverArgs are the arguments agents launch cuin with.
func serverArgs(project string) []string {
	return []string{"mcp", "--path", project}
}

// mergeServer adds a cuin entry under key to the existing JSON config. It
// returns nil, nil when cuin is already registered.
func mergeServer(existing []byte, key, project string, extra map[string]string) ([]byte, error) {
	cfg := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := cfg[key].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverName]; exists {
		return nil, nil
	}

	args := make([]any, 0, 3)
	for _, a := range serverArgs(project) {
		args = append(args, a)
	}
	entry := map[string]any{"command": "cuin", "args": args}
	for k, v := range extra {
		entry[k] = v
	}
	servers[serverName] = entry
	cfg[key] = servers

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func configureFile(d detected, project string) error {
	if err := os.MkdirAll(filepath.Dir(d.configPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(d.configPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, err := mergeServer(existing, d.key, project, d.extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(d.configPath, merged, 0o644)
}

func configureCLI(d detected, scope, project string) error {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverName, "--", "cuin")
	args = append(args, serverArgs(project)...)
	return runAgent(d.binary, args...)
}

// ask prints question and reads a line. EOF yields def.
func ask(in *bufio.Scanner, w io.Writer, question, def string) string {
	fmt.Fprintf(w, "%s ", question)
	if !in.Scan() {
		return def
	}
	answer := strings.ToLower(strings.TrimSpace(in.Text()))
	if answer == "" {
		return def
	}
	return answer
}

func confirm(in *bufio.Scanner, w io.Writer, question string) bool {
	switch ask(in, w, question+" [Y/n]", "y") {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// runSetup detects agents and registers the server for project with each
// one not yet configured. With auto set nothing is prompted and CLI agents
// use project scope.
func runSetup(r io.Reader, w io.Writer, project string, auto bool) {
	found := detectAgents()
	if len(found) == 0 {
		fmt.Fprintln(w, "No supported coding agents detected.")
		return
	}

	fmt.Fprintln(w, "Detected coding agents:")
	for _, d := range found {
		note := ""
		if d.configured {
			note = " (already configured)"
		}
		fmt.Fprintf(w, "  * %s%s\n", d.name, note)
	}
	fmt.Fprintln(w)

	in := bufio.NewScanner(r)
	if !auto && !confirm(in, w, "Configure agents?") {
		return
	}

	for _, d := range found {
		if d.configured {
			fmt.Fprintf(w, "%s: already configured, skipping\n", d.name)
			continue
		}
		switch d.kind {
		case agentCLI:
			scope := "project"
			if !auto {
				switch ask(in, w, fmt.Sprintf("%s: scope? [1] project [2] user [3] skip >", d.name), "1") {
				case "1":
				case "2":
					scope = "user"
				default:
					fmt.Fprintln(w, "  skipped")
					continue
				}
			}
			if err := configureCLI(d, scope, project); err != nil {
				fmt.Fprintf(w, "  ! %s: failed: %v\n", d.name, err)
				continue
			}
			fmt.Fprintf(w, "  + %s configured (scope: %s)\n", d.name, scope)

		case agentFile:
			if !auto && !confirm(in, w, fmt.Sprintf("%s: add to %s?", d.name, d.configPath)) {
				fmt.Fprintln(w, "  skipped")
				continue
			}
			if err := configureFile(d, project); err != nil {
				fmt.Fprintf(w, "  ! %s: failed: %v\n", d.name, err)
				continue
			}
			fmt.Fprintf(w, "  + %s configured (%s)\n", d.name, d.configPath)
		}
	}
}
