package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCommands feeds q from line-oriented text until r is exhausted or
// ctx is done. Each line is one of:
//
//	<action>        press an action (toggle_camera, take_photo, ...)
//	axis <x> <y>    set the stick
//	zoom <v>        set the zoom axis
//
// Blank lines and lines starting with '#' are skipped. Invalid lines are
// passed to onError (if non-nil) and skipped.
func ReadCommands(ctx context.Context, r io.Reader, q *Queue, onError func(error)) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := applyCommand(q, strings.Fields(text)); err != nil && onError != nil {
			onError(fmt.Errorf("line %d: %w", line, err))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	return nil
}

func applyCommand(q *Queue, fields []string) error {
	switch fields[0] {
	case "axis":
		if len(fields) != 3 {
			return fmt.Errorf("usage: axis <x> <y>")
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("axis x: %w", err)
		}
		y, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("axis y: %w", err)
		}
		a := Axis{X: x, Y: y}
		if err := ValidateAxis(a); err != nil {
			return err
		}
		q.SetStick(a)
	case "zoom":
		if len(fields) != 2 {
			return fmt.Errorf("usage: zoom <value>")
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("zoom: %w", err)
		}
		if err := ValidateZoom(v); err != nil {
			return err
		}
		q.SetZoom(v)
	default:
		if len(fields) != 1 {
			return fmt.Errorf("unexpected arguments after %q", fields[0])
		}
		a, err := ParseAction(fields[0])
		if err != nil {
			return err
		}
		q.Press(a)
	}
	return nil
}
