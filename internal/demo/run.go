package demo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Run feeds keys read from in, one per line, to door and writes the resulting
// state or error for each to out. Blank lines and lines starting with # are
// skipped. It returns when in is exhausted or ctx is done.
func Run(ctx context.Context, door *Door, in io.Reader, out io.Writer, logger *zap.Logger) error {
	door.OnStateChange(func(from, to State) {
		logger.Info("state changed", zap.Stringer("from", from), zap.Stringer("to", to))
	})

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := strings.TrimSpace(scanner.Text())
		if key == "" || strings.HasPrefix(key, "#") {
			continue
		}

		state, err := door.Press(key)
		if err != nil {
			if _, werr := fmt.Fprintf(out, "%s: %v (%s)\n", key, err, state); werr != nil {
				return werr
			}
			continue
		}
		if _, err := fmt.Fprintf(out, "%s -> %s\n", key, state); err != nil {
			return err
		}
	}
	return scanner.Err()
}
