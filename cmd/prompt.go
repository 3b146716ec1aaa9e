package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// errNoPath reports an empty answer to a path prompt.
var errNoPath = errors.New("no path given")

// pathAsker asks the user for file paths. On a terminal it uses an interactive prompt with
// file completion; otherwise it reads one line per question from the input.
type pathAsker struct {
	tty    bool
	reader *bufio.Reader
	out    io.Writer
}

func newPathAsker(in io.Reader, out io.Writer) *pathAsker {
	tty := false
	if f, ok := in.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &pathAsker{tty: tty, reader: bufio.NewReader(in), out: out}
}

// ask prints the question and returns the trimmed answer. Completion offers directories and
// files with the given extension.
func (a *pathAsker) ask(question, extension string) (string, error) {
	fmt.Fprintln(a.out, question)
	if a.tty {
		answer := prompt.Input("> ", func(d prompt.Document) []prompt.Suggest {
			return fileSuggestions(d.GetWordBeforeCursor(), extension)
		}, prompt.OptionTitle("production-sim"))
		return cleanPath(answer)
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading answer to %q: %w", question, err)
	}
	return cleanPath(line)
}

func cleanPath(answer string) (string, error) {
	path := strings.TrimSpace(answer)
	if path == "" {
		return "", errNoPath
	}
	return path, nil
}

// fileSuggestions lists directories and files with the given extension under the
// directory part of prefix.
func fileSuggestions(prefix, extension string) []prompt.Suggest {
	searchDir := "."
	if strings.Contains(prefix, string(filepath.Separator)) {
		searchDir = filepath.Dir(prefix)
	}
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil
	}

	var suggestions []prompt.Suggest
	for _, e := range entries {
		name := e.Name()
		full := name
		if searchDir != "." {
			full = filepath.Join(searchDir, name)
		}
		switch {
		case e.IsDir():
			suggestions = append(suggestions, prompt.Suggest{Text: full + string(filepath.Separator), Description: "Directory"})
		case extension == "" || strings.EqualFold(filepath.Ext(name), extension):
			desc := "File"
			if info, err := e.Info(); err == nil {
				desc = fmt.Sprintf("File (%.1fKB)", float64(info.Size())/1024)
			}
			suggestions = append(suggestions, prompt.Suggest{Text: full, Description: desc})
		}
	}
	return prompt.FilterHasPrefix(suggestions, prefix, true)
}
