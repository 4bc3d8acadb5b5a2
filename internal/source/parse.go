package source

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/arnie-db/arnie/migration"
	"github.com/pkg/errors"
)

// Direction markers inside a unit file. Statements accumulate under the
// most recent marker; a section that is absent means the unit does not
// expose that direction. Anything before the first marker is preamble and
// is ignored.
const (
	upMarker   = "-- +arnie Up"
	downMarker = "-- +arnie Down"
)

const maxLineSize = 1024 * 1024

func parseUnit(name string, contents []byte) (*migration.Unit, error) {
	up, down, err := parseSections(contents)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse migration [%s]", name)
	}

	u := &migration.Unit{Name: name}
	if len(up) > 0 {
		u.Up = migration.SQL(up...)
	}
	if len(down) > 0 {
		u.Down = migration.SQL(down...)
	}

	return u, nil
}

// parseSections splits a unit file into its up and down statement lists. A
// statement ends on a line with a trailing semicolon; a trailing statement
// without one is kept as well.
//
// TODO: support StatementBegin/StatementEnd fences so procedure bodies with
// embedded semicolons survive the split.
func parseSections(contents []byte) (up, down []string, err error) {
	var current *[]string
	var stmt strings.Builder

	flush := func() {
		s := strings.TrimSpace(stmt.String())
		stmt.Reset()

		if current == nil || s == "" {
			return
		}

		*current = append(*current, s)
	}

	scanner := bufio.NewScanner(bytes.NewReader(contents))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.EqualFold(trimmed, upMarker):
			flush()
			current = &up
			continue
		case strings.EqualFold(trimmed, downMarker):
			flush()
			current = &down
			continue
		}

		if current == nil {
			continue
		}

		stmt.WriteString(line)
		stmt.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	flush()

	return up, down, nil
}
