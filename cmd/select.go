package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// readLine prints prompt and reads one line of input. ok is false when the
// input ended before a line was read.
func readLine(in io.Reader, out io.Writer, prompt string) (line string, ok bool, err error) {
	fmt.Fprint(out, prompt)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", false, fmt.Errorf("failed to read input: %w", err)
		}
		// No input (Ctrl+D or similar)
		return "", false, nil
	}
	return strings.TrimSpace(scanner.Text()), true, nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	answer, ok, err := readLine(in, out, question+" [y/N]: ")
	if err != nil || !ok {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// parseSelection turns input such as "1,3,5" or "all" into zero-based indices
// of a list of n items. Duplicates are dropped and input order is kept.
func parseSelection(input string, n int) ([]int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	var selected []int
	if strings.ToLower(input) == "all" {
		for i := range n {
			selected = append(selected, i)
		}
		return selected, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		num, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid number '%s': must be a positive integer", part)
		}
		if num < 1 || num > n {
			return nil, fmt.Errorf("invalid number %d: must be between 1 and %d", num, n)
		}

		// Convert to 0-based index and check for duplicates
		idx := num - 1
		if !seen[idx] {
			selected = append(selected, idx)
			seen[idx] = true
		}
	}
	return selected, nil
}
