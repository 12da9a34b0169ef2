package palette

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type backendKind int

const (
	kindRofi backendKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// indexOutput reports whether the launcher prints the selected row index
// instead of its text.
func (k backendKind) indexOutput() bool {
	return k == kindRofi || k == kindFuzzel
}

type dmenuBackend struct {
	command string
	kind    backendKind
	run     func(name string, args []string, stdin string) (string, error)
}

func runCommand(name string, args []string, stdin string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if isCancelExit(err) && strings.TrimSpace(string(out)) == "" {
			return "", ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s failed: %s", name, msg)
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (b *dmenuBackend) Show(prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}
	rows := b.labels(items)
	out, err := b.run(b.command, b.buildArgs(prompt, items), strings.Join(rows, "\n"))
	if err != nil {
		return Item{}, err
	}
	if out == "" {
		return Item{}, ErrCancelled
	}

	item, err := b.parseSelection(out, rows, items)
	if err != nil {
		return Item{}, err
	}
	if item.Header {
		return Item{}, ErrCancelled
	}
	return item, nil
}

func (b *dmenuBackend) buildArgs(prompt string, items []Item) []string {
	var args []string
	switch b.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		var active []string
		selected := -1
		for i, item := range items {
			if item.Header {
				continue
			}
			if selected < 0 {
				selected = i
			}
			if item.Active {
				active = append(active, strconv.Itoa(i))
			}
		}
		if len(active) > 0 {
			args = append(args, "-a", strings.Join(active, ","))
		}
		if selected >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(selected))
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindWofi:
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// labels renders one line per item. Launchers that answer with text get
// duplicate labels numbered so the selection stays unambiguous.
func (b *dmenuBackend) labels(items []Item) []string {
	rows := make([]string, len(items))
	seen := make(map[string]int)
	for i, item := range items {
		label := sanitizeLabel(item.Label)
		if item.Header {
			label = "── " + label + " ──"
		}
		if !b.kind.indexOutput() {
			if n := seen[label]; n > 0 {
				seen[label]++
				label = fmt.Sprintf("%s (%d)", label, n+1)
			} else {
				seen[label] = 1
			}
		}
		rows[i] = label
	}
	return rows
}

func (b *dmenuBackend) parseSelection(selection string, rows []string, items []Item) (Item, error) {
	if b.kind.indexOutput() {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for i, row := range rows {
		if row == selection {
			return items[i], nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// Launchers use 1 for "no selection" and 130 for Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
