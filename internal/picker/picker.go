// =============================================================================
// Glosa Classifier - Path Pickers
// =============================================================================
//
// The classifier needs two paths from the operator: the source sheet and the
// report destination. Both are obtained through the Picker capability so the
// pipeline runs the same way from flags, from a terminal prompt, or from a
// test double.
//
// IMPLEMENTATIONS:
//   - Static: paths fixed up front (--input / --output flags, tests)
//   - Prompt: asks on a terminal, one line per path
//   - Override: fixed paths where given, another Picker for the rest
//
// Returning ok == false means the operator cancelled. That is not an error.
//
// =============================================================================

package picker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/glosa-classifier/pkg/utils"
)

// ErrCancelled is returned by callers that turn a cancelled pick into an error.
var ErrCancelled = errors.New("selection cancelled")

// SupportedInputs are the source file extensions the loader can read.
var SupportedInputs = []string{".xlsx", ".xlsm", ".xls", ".csv", ".txt"}

// Picker obtains the input and output paths of a run.
type Picker interface {
	// PickInput returns the source file. ok is false when cancelled.
	PickInput() (path string, ok bool, err error)

	// PickOutput returns the report destination. suggested is the default
	// proposed to the operator. ok is false when cancelled.
	PickOutput(suggested string) (path string, ok bool, err error)
}

// IsSupportedInput reports whether path has a readable source extension.
func IsSupportedInput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedInputs {
		if ext == s {
			return true
		}
	}
	return false
}

// =============================================================================
// STATIC PICKER
// =============================================================================

// Static returns fixed paths. An empty Input counts as a cancelled pick; an
// empty Output accepts the suggested name.
type Static struct {
	Input  string
	Output string
}

// PickInput implements Picker.
func (s Static) PickInput() (string, bool, error) {
	if s.Input == "" {
		return "", false, nil
	}
	return s.Input, true, nil
}

// PickOutput implements Picker.
func (s Static) PickOutput(suggested string) (string, bool, error) {
	if s.Output == "" {
		return suggested, true, nil
	}
	return utils.EnsureExtension(s.Output), true, nil
}

// Override answers from fixed paths where they are set and asks Fallback
// for the rest.
type Override struct {
	Fallback Picker
	Input    string
	Output   string
}

// PickInput implements Picker.
func (o Override) PickInput() (string, bool, error) {
	if o.Input != "" {
		return o.Input, true, nil
	}
	return o.Fallback.PickInput()
}

// PickOutput implements Picker.
func (o Override) PickOutput(suggested string) (string, bool, error) {
	if o.Output != "" {
		return utils.EnsureExtension(o.Output), true, nil
	}
	return o.Fallback.PickOutput(suggested)
}

// =============================================================================
// TERMINAL PROMPT
// =============================================================================

// Prompt asks for the paths on a terminal.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt creates a Prompt reading answers from in and writing questions
// to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// PickInput asks for the source file until an existing file with a
// supported extension is given. An empty answer or end of input cancels.
func (p *Prompt) PickInput() (string, bool, error) {
	for {
		fmt.Fprintf(p.out, "Source file (%s, empty to cancel): ", strings.Join(SupportedInputs, " "))
		answer, ok, err := p.readLine()
		if err != nil || !ok || answer == "" {
			return "", false, err
		}

		switch {
		case !IsSupportedInput(answer):
			fmt.Fprintf(p.out, "Unsupported file type %q.\n", filepath.Ext(answer))
		case !utils.FileExists(answer):
			fmt.Fprintf(p.out, "File %s does not exist.\n", answer)
		default:
			return answer, true, nil
		}
	}
}

// PickOutput asks for the report destination. An empty answer accepts the
// suggestion; end of input cancels.
func (p *Prompt) PickOutput(suggested string) (string, bool, error) {
	fmt.Fprintf(p.out, "Save report as [%s]: ", suggested)
	answer, ok, err := p.readLine()
	if err != nil || !ok {
		return "", false, err
	}
	if answer == "" {
		return suggested, true, nil
	}
	return utils.EnsureExtension(answer), true, nil
}

// readLine returns one trimmed line. ok is false at end of input with
// nothing read.
func (p *Prompt) readLine() (string, bool, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", false, nil
			}
			return strings.TrimSpace(line), true, nil
		}
		return "", false, fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), true, nil
}
