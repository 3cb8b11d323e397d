package shell

import (
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/ryuou/ryuou/config"
	"github.com/ryuou/ryuou/csa"
	"github.com/ryuou/ryuou/mate"
	"github.com/ryuou/ryuou/move"
	"github.com/ryuou/ryuou/movegen"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g., "-depth")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"search": {
		Options: []string{"-depth", "-time", "-workers", "-nodes", "-plain", "-play", "-format"},
	},
	"bench": {
		Options: []string{"-runs", "-depth", "-workers", "-hist"},
	},
	"gen": {
		Args: []string{"capture", "nocapture", "drop", "evasion", "check", "checklight"},
	},
	"mate": {
		Args: []string{"1", "3"},
	},
	"set": {
		Args: []string{
			config.ConfigSearchDepth, config.ConfigSearchWorkers, config.ConfigSearchTimeMs,
			config.ConfigSearchNodes, config.ConfigTTSizeMB, config.ConfigEvalParamsPath,
			config.ConfigEvalCacheBits, config.ConfigRecordsPath, config.ConfigDebug,
		},
	},
	"help": {
		Args: []string{"search", "gen", "bench", "load", "script", "set"},
	},
}

// Common command names for command completion
var commandNames = []string{
	"help", "load", "save", "list", "new", "show", "s", "move", "undo", "gen",
	"search", "mate", "eval", "perft", "bench", "set", "script", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoComplete interface
// It provides context-aware autocomplete based on what's been typed
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	// Parse the line using shellquote to handle quoted strings properly
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}

	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch lastCompleteField {
		case "-plain", "-play", "-hist":
			completions = boolValues
		case "-format":
			completions = []string{"yaml", "json"}
		}

		if completions == nil {
			switch cmdName {
			case "move":
				completions = c.legalMoves()
			case "load":
				completions = c.recordNames()
			}
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			// Return only the part that needs to be added
			matches = append(matches, []rune(completion[len(prefix):]+" "))
		}
	}
	return matches, len([]rune(prefix))
}

func (c *ShellCompleter) legalMoves() []string {
	b := c.sc.board
	turn := b.Turn()
	return lo.Map(movegen.GenerateLegal(b, nil, mate.IsPawnDropMate),
		func(m move.Move, _ int) string { return m.CSA(turn) })
}

// recordNames lists records relative to the records directory.
func (c *ShellCompleter) recordNames() []string {
	dir := c.sc.config.GetString(config.ConfigRecordsPath)
	files, err := csa.ListFiles(dir)
	if err != nil {
		return nil
	}
	return lo.FilterMap(files, func(f string, _ int) (string, bool) {
		rel, err := filepath.Rel(dir, f)
		return rel, err == nil
	})
}
