package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// AgentDef describes one supported AI agent. A non-empty Binary marks a
// CLI-registered agent (`<binary> mcp add ...`); otherwise the agent is
// configured by merging a server entry into its JSON config file, detected
// through its project marker directory.
type AgentDef struct {
	ID          string
	DisplayName string
	Binary      string
	Marker      string
	ConfigPath  string
	ServersKey  string // "servers" (VS Code) or "mcpServers"
	NeedsScope  bool
	ExtraFields map[string]string
}

func (d AgentDef) isCLI() bool { return d.Binary != "" }

// DetectedAgent is an agent found on the system.
type DetectedAgent struct {
	Def            AgentDef
	AlreadySetup   bool
	ResolvedConfig string
}

var (
	setupAuto  bool
	setupUsage string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the exportfix MCP server with installed AI agents",
	Long: `Detects AI agents working in this project (Claude Code, VS Code Copilot,
Cursor) and adds an exportfix MCP server entry to their configuration so
they can call the inference tools.`,
	Example: "  exportfix setup --auto --usage usage.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		executeSetup(os.Stdin, os.Stdout, setupOptions{auto: setupAuto, usagePath: setupUsage})
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVar(&setupAuto, "auto", false,
		"Configure every detected agent without prompting")
	setupCmd.Flags().StringVar(&setupUsage, "usage", "usage.json",
		"Usage dictionary file the registered server will load")

	rootCmd.AddCommand(setupCmd)
}

// setupOptions holds the parsed setup flags.
type setupOptions struct {
	auto      bool
	usagePath string
}

// Replaceable for testing.
var lookPathFunc = exec.LookPath
var statFunc = os.Stat

// agentRegistry lists the supported agents in display order. All three are
// project-scoped: the server entry always points at the current repo's
// usage file.
var agentRegistry = []AgentDef{
	{
		ID: "claude_code", DisplayName: "Claude Code",
		Binary: "claude", NeedsScope: true,
	},
	{
		ID: "vscode_copilot", DisplayName: "VS Code Copilot",
		Marker:      ".vscode",
		ConfigPath:  filepath.Join(".vscode", "mcp.json"),
		ServersKey:  "servers",
		ExtraFields: map[string]string{"type": "stdio"},
	},
	{
		ID: "cursor", DisplayName: "Cursor",
		Marker:     ".cursor",
		ConfigPath: filepath.Join(".cursor", "mcp.json"),
		ServersKey: "mcpServers",
	},
}

// detectAgents probes for each registered agent: CLI agents by binary on
// PATH, file agents by their marker directory in the working tree.
func detectAgents() []DetectedAgent {
	var detected []DetectedAgent
	for _, def := range agentRegistry {
		if def.isCLI() {
			if _, err := lookPathFunc(def.Binary); err != nil {
				continue
			}
			detected = append(detected, DetectedAgent{
				Def: def,
				// `claude mcp add` at project scope writes .mcp.json.
				AlreadySetup: hasServerEntry(".mcp.json", "mcpServers"),
			})
			continue
		}

		if _, err := statFunc(def.Marker); err != nil {
			continue
		}
		detected = append(detected, DetectedAgent{
			Def:            def,
			ResolvedConfig: def.ConfigPath,
			AlreadySetup:   hasServerEntry(def.ConfigPath, def.ServersKey),
		})
	}
	return detected
}

// hasServerEntry reports whether configPath already carries an exportfix
// server under serversKey. Unreadable or malformed configs count as not
// configured.
func hasServerEntry(configPath, serversKey string) bool {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return false
	}
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return false
	}
	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		return false
	}
	_, exists := servers["exportfix"]
	return exists
}

// serverEntry returns the MCP server config object for exportfix.
func serverEntry(usagePath string, extra map[string]string) map[string]any {
	entry := map[string]any{
		"command": "exportfix",
		"args":    []any{"serve", usagePath},
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// mergeServerEntry reads existing JSON (or creates new), adds an "exportfix"
// entry under serversKey, and returns the merged JSON bytes.
// Returns nil, nil if exportfix is already configured (no-op).
func mergeServerEntry(existing []byte, serversKey, usagePath string, extra map[string]string) ([]byte, error) {
	config := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}

	if _, exists := servers["exportfix"]; exists {
		return nil, nil // already configured
	}

	servers["exportfix"] = serverEntry(usagePath, extra)
	config[serversKey] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// configureCLIAgent runs `<binary> mcp add` with the chosen scope.
func configureCLIAgent(def AgentDef, scope, usagePath string) error {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, "exportfix", "--", "exportfix", "serve", usagePath)
	cmd := exec.Command(def.Binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// configureFileAgent reads, merges, and writes the JSON config file.
func configureFileAgent(def AgentDef, configPath, usagePath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var existing []byte
	if data, err := os.ReadFile(configPath); err == nil {
		existing = data
	}

	merged, err := mergeServerEntry(existing, def.ServersKey, usagePath, def.ExtraFields)
	if err != nil {
		return err
	}
	if merged == nil {
		return nil // already configured
	}

	return os.WriteFile(configPath, merged, 0644)
}

// --- Interactive prompts ---

// promptYesNo prints a question and reads Y/n. Returns true for yes (default).
func promptYesNo(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s ", question)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return true // default yes on EOF
	}
	answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return answer == "" || answer == "y" || answer == "yes"
}

// promptScope prints scope options and reads 1/2/3.
// Returns "project", "user", or "" (skip).
func promptScope(r io.Reader, w io.Writer, agentName string) string {
	fmt.Fprintf(w, "\n%s — add exportfix MCP server?\n", agentName)
	fmt.Fprintln(w, "  [1] Project scope (shared with team)")
	fmt.Fprintln(w, "  [2] User scope (personal, global)")
	fmt.Fprintln(w, "  [3] Skip")
	fmt.Fprintf(w, "  > ")

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return "project" // default on EOF
	}
	switch strings.TrimSpace(scanner.Text()) {
	case "1", "":
		return "project"
	case "2":
		return "user"
	default:
		return "" // skip
	}
}

// --- Orchestration ---

// executeSetup contains the testable core logic, parameterized on I/O.
func executeSetup(r io.Reader, w io.Writer, opts setupOptions) {
	detected := detectAgents()
	if len(detected) == 0 {
		fmt.Fprintln(w, "No supported AI agents detected.")
		return
	}

	fmt.Fprintln(w, "Detected AI agents:")
	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "  * %s (already configured)\n", d.Def.DisplayName)
		} else {
			fmt.Fprintf(w, "  * %s\n", d.Def.DisplayName)
		}
	}
	fmt.Fprintln(w)

	// Global confirmation (unless --auto).
	if !opts.auto {
		if !promptYesNo(r, w, "Configure agents? [Y/n]") {
			return
		}
	}

	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "\n%s — already configured, skipping\n", d.Def.DisplayName)
			continue
		}
		configureOneAgent(r, w, d, opts)
	}
}

func configureOneAgent(r io.Reader, w io.Writer, d DetectedAgent, opts setupOptions) {
	if d.Def.isCLI() {
		scope := "project" // default for --auto
		if !opts.auto && d.Def.NeedsScope {
			scope = promptScope(r, w, d.Def.DisplayName)
			if scope == "" {
				fmt.Fprintf(w, "  skipped\n")
				return
			}
		}
		if err := configureCLIAgent(d.Def, scope, opts.usagePath); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", d.Def.DisplayName, err)
			return
		}
		fmt.Fprintf(w, "  + %s configured (scope: %s)\n", d.Def.DisplayName, scope)
		return
	}

	if !opts.auto {
		if !promptYesNo(r, w, fmt.Sprintf("\n%s — add to %s? [Y/n]", d.Def.DisplayName, d.ResolvedConfig)) {
			fmt.Fprintf(w, "  skipped\n")
			return
		}
	}
	if err := configureFileAgent(d.Def, d.ResolvedConfig, opts.usagePath); err != nil {
		fmt.Fprintf(w, "  ! %s: failed: %v\n", d.Def.DisplayName, err)
		return
	}
	fmt.Fprintf(w, "  + %s configured (%s)\n", d.Def.DisplayName, d.ResolvedConfig)
}
