package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/stairlog/agent/internal/fault"
	"github.com/stairlog/agent/internal/session"
)

func base() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestCSVGolden(t *testing.T) {
	dir := t.TempDir()
	c := NewCSV(dir)
	defer c.Close()

	dest := DestinationFor(session.WalkingUp)
	require.NoError(t, c.Append(dest, Sample{
		Time: base().Add(125 * time.Microsecond), X: 0.25, Y: -0.5, Z: 1, Label: session.WalkingUp,
	}))
	require.NoError(t, c.Append(dest, Sample{
		Time: base().Add(20250 * time.Microsecond), X: 0.125, Y: 0, Z: 0.984375, Label: session.WalkingUp,
	}))

	data, err := os.ReadFile(filepath.Join(dir, "walkingup", "up_ML1.csv"))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "csv_walkingup", data)
}

func TestCSVCreatesDestinationOnFirstWrite(t *testing.T) {
	dir := t.TempDir()
	c := NewCSV(dir)
	defer c.Close()

	down := DestinationFor(session.WalkingDown)
	_, err := os.Stat(c.Path(down))
	require.True(t, os.IsNotExist(err), "destination must not exist before the first write")

	require.NoError(t, c.Append(down, Sample{Time: base(), Label: session.WalkingDown}))
	_, err = os.Stat(c.Path(down))
	require.NoError(t, err)

	_, err = os.Stat(c.Path(DestinationFor(session.WalkingUp)))
	require.True(t, os.IsNotExist(err), "other destinations stay untouched")
}

func TestCSVAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	dest := DestinationFor(session.WalkingUp)

	first := NewCSV(dir)
	require.NoError(t, first.Append(dest, Sample{Time: base(), Label: session.WalkingUp}))
	require.NoError(t, first.Close())

	second := NewCSV(dir)
	require.NoError(t, second.Append(dest, Sample{Time: base().Add(time.Second), Label: session.WalkingUp}))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(second.Path(dest))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\r\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "2026-03-01T12:00:00.000000,"))
	require.True(t, strings.HasPrefix(lines[1], "2026-03-01T12:00:01.000000,"))
}

func TestCSVWriteFailureIsSinkWrite(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the collection directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "walkingup"), []byte("x"), 0o644))

	c := NewCSV(dir)
	defer c.Close()
	err := c.Append(DestinationFor(session.WalkingUp), Sample{Time: base()})
	require.Error(t, err)
	require.True(t, fault.Is(err, fault.SinkWrite), "got %v", err)

	// The other destination is unaffected.
	require.NoError(t, c.Append(DestinationFor(session.WalkingDown), Sample{Time: base()}))
}
