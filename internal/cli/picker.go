package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// pick shows a numbered list of options and reads the chosen number. An empty line
// or end of input closes the picker without a selection and returns ErrPickerClosed.
// Out of range answers are asked again.
func pick(reader *bufio.Reader, w io.Writer, title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrPickerClosed
	}

	fmt.Fprintf(w, "%s:\n", title)
	for i, opt := range options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(w, "Choose 1-%d (empty to close): ", len(options))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return -1, err
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			fmt.Fprintln(w)
			return -1, ErrPickerClosed
		}
		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(w, "%q is not an option\n", answer)
		if errors.Is(err, io.EOF) {
			return -1, ErrPickerClosed
		}
	}
}
