package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// presentationGlobs are the file arguments open and view complete.
const presentationGlobs = "*.pptx,*.ppt"

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long  string // --output
	Short string // -o (empty if none)
	Desc  string
	Bool  bool   // takes no value
	Dir   bool   // completes directories
	Glob  string // completes files matching the glob list
}

// commandDef describes a command for completion.
type commandDef struct {
	Name    string
	Desc    string
	Flags   []flagDef
	Files   bool     // accepts presentation arguments
	Actions []string // fixed positional values
}

// flagDirs and flagGlobs hold completion hints; names, shorthands, and
// descriptions come from the FlagSets.
var (
	flagDirs  = map[string]bool{"output": true, "cache-dir": true}
	flagGlobs = map[string]string{"config": "*.yaml,*.yml", "tool": "*"}
)

// extractFlags lists the flags registered in fs.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var defs []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		defs = append(defs, flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
			Bool:  f.Value.Type() == "bool",
			Dir:   flagDirs[f.Name],
			Glob:  flagGlobs[f.Name],
		})
	})
	return defs
}

// getCommands returns the command registry for completion.
func getCommands() []commandDef {
	return []commandDef{
		{Name: "open", Desc: "Convert a presentation and render one page", Files: true,
			Flags: extractFlags(openFlagSet(&openFlags{}, io.Discard))},
		{Name: "view", Desc: "Interactive viewer driven by stdin", Files: true,
			Flags: extractFlags(viewFlagSet(&viewFlags{}, io.Discard))},
		{Name: "cache", Desc: "Show, sweep, or clear the conversion cache",
			Actions: []string{"stats", "sweep", "clear"},
			Flags:   extractFlags(cacheFlagSet(&cacheFlags{}, io.Discard))},
		{Name: "doctor", Desc: "Check the converter and system setup",
			Flags: extractFlags(doctorFlagSet(&doctorFlags{}, io.Discard))},
		{Name: "completion", Desc: "Generate shell completion script",
			Actions: []string{"bash", "zsh", "fish", "powershell"}},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w)
	case ShellZsh:
		return generateZsh(w)
	case ShellFish:
		return generateFish(w)
	case ShellPowerShell:
		return generatePowerShell(w)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
}

func commandNames(cmds []commandDef) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

func flagWords(flags []flagDef) string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return strings.Join(words, " ")
}

// globExt turns "*.pptx,*.ppt" into "pptx|ppt".
func globExt(globs string) string {
	parts := strings.Split(globs, ",")
	for i, p := range parts {
		parts[i] = strings.TrimPrefix(p, "*.")
	}
	return strings.Join(parts, "|")
}

func generateBash(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("# bash completion for slideview\n")
	b.WriteString("_slideview() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", commandNames(cmds))
	b.WriteString("        return\n    fi\n\n")
	b.WriteString("    case \"$prev\" in\n")
	seen := map[string]bool{}
	for _, c := range cmds {
		for _, f := range c.Flags {
			if seen[f.Long] || (!f.Dir && f.Glob == "") {
				continue
			}
			seen[f.Long] = true
			pattern := "--" + f.Long
			if f.Short != "" {
				pattern += "|-" + f.Short
			}
			if f.Dir {
				fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -d -- \"$cur\")); return ;;\n", pattern)
			} else {
				fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -f -- \"$cur\")); return ;;\n", pattern)
			}
		}
	}
	b.WriteString("    esac\n\n")
	b.WriteString("    case \"$cmd\" in\n")
	for _, c := range cmds {
		words := flagWords(c.Flags)
		if len(c.Actions) > 0 {
			words = strings.TrimSpace(strings.Join(c.Actions, " ") + " " + words)
		}
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		if c.Files {
			b.WriteString("            if [[ \"$cur\" != -* ]]; then\n")
			fmt.Fprintf(&b, "                COMPREPLY=($(compgen -f -X '!*.@(%s)' -- \"$cur\") $(compgen -d -- \"$cur\"))\n", globExt(presentationGlobs))
			b.WriteString("                return\n            fi\n")
		}
		if c.Name == "help" {
			words = commandNames(cmds)
		}
		fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\")) ;;\n", words)
	}
	b.WriteString("    esac\n}\n")
	b.WriteString("shopt -s extglob\n")
	b.WriteString("complete -o filenames -F _slideview slideview\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func generateZsh(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("#compdef slideview\n\n")
	b.WriteString("_slideview() {\n")
	b.WriteString("    local -a commands\n    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n        return\n    fi\n\n")
	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n            _arguments \\\n", c.Name)
		for _, f := range c.Flags {
			action := ""
			switch {
			case f.Bool:
			case f.Dir:
				action = ":dir:_files -/"
			case f.Glob != "":
				action = ":file:_files"
			default:
				action = ":value:"
			}
			spec := fmt.Sprintf("--%s[%s]%s", f.Long, zshEscape(f.Desc), action)
			if f.Short != "" {
				spec = fmt.Sprintf("{-%s,--%s}'[%s]%s'", f.Short, f.Long, zshEscape(f.Desc), action)
				fmt.Fprintf(&b, "                %s \\\n", spec)
				continue
			}
			fmt.Fprintf(&b, "                '%s' \\\n", spec)
		}
		switch {
		case c.Files:
			fmt.Fprintf(&b, "                '1:presentation:_files -g \"*.(%s)\"'\n", globExt(presentationGlobs))
		case len(c.Actions) > 0:
			fmt.Fprintf(&b, "                '1:action:(%s)'\n", strings.Join(c.Actions, " "))
		case c.Name == "help":
			fmt.Fprintf(&b, "                '1:command:(%s)'\n", commandNames(cmds))
		default:
			b.WriteString("                ''\n")
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n}\n\n")
	b.WriteString("compdef _slideview slideview\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func zshEscape(s string) string {
	r := strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:")
	return r.Replace(s)
}

func generateFish(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("# fish completion for slideview\n")
	b.WriteString("complete -c slideview -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c slideview -n '__fish_use_subcommand' -a %s -d %s\n", c.Name, fishQuote(c.Desc))
	}
	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_seen_subcommand_from %s'", c.Name)
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c slideview -n %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch {
			case f.Dir:
				line += " -r -a '(__fish_complete_directories)'"
			case f.Glob != "":
				line += " -r -F"
			case !f.Bool:
				line += " -r"
			}
			fmt.Fprintf(&b, "%s -d %s\n", line, fishQuote(f.Desc))
		}
		if c.Files {
			for _, ext := range strings.Split(globExt(presentationGlobs), "|") {
				fmt.Fprintf(&b, "complete -c slideview -n %s -a '(__fish_complete_suffix .%s)'\n", cond, ext)
			}
		}
		if len(c.Actions) > 0 {
			fmt.Fprintf(&b, "complete -c slideview -n %s -a '%s'\n", cond, strings.Join(c.Actions, " "))
		}
		if c.Name == "help" {
			fmt.Fprintf(&b, "complete -c slideview -n %s -a '%s'\n", cond, commandNames(cmds))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func fishQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}

func generatePowerShell(w io.Writer) error {
	cmds := getCommands()
	var b strings.Builder

	b.WriteString("# PowerShell completion for slideview\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName slideview -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n")
	b.WriteString("    $words = $commandAst.CommandElements | ForEach-Object { $_.ToString() }\n")
	b.WriteString("    $completions = @{\n")
	fmt.Fprintf(&b, "        '' = @(%s)\n", psList(strings.Fields(commandNames(cmds))))
	for _, c := range cmds {
		items := append(append([]string{}, c.Actions...), strings.Fields(flagWords(c.Flags))...)
		if c.Name == "help" {
			items = strings.Fields(commandNames(cmds))
		}
		fmt.Fprintf(&b, "        '%s' = @(%s)\n", c.Name, psList(items))
	}
	b.WriteString("    }\n")
	b.WriteString("    $key = if ($words.Count -gt 1) { $words[1] } else { '' }\n")
	b.WriteString("    if ($words.Count -le 2 -and $wordToComplete -ne '') { $key = '' }\n")
	b.WriteString("    $completions[$key] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("    }\n}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func psList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return strings.Join(quoted, ", ")
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}

	shell := Shell(args[0])
	if err := GenerateCompletion(env.Stdout, shell); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return nil
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slideview completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(slideview completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(slideview completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    slideview completion fish > ~/.config/fish/completions/slideview.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    slideview completion powershell | Out-String | Invoke-Expression")
}
