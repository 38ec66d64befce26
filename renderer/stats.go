package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type FrameStats struct {
	// Number of rendered frames.
	Frames uint64

	// Number of resize notifications that changed the viewport.
	Resizes uint64

	// Number of ticks skipped because no scene was available.
	Skipped uint64

	// Scene version observed by the last rendered frame.
	SceneVersion uint64

	// Render time for the last frame and for all frames.
	LastFrameTime  time.Duration
	TotalFrameTime time.Duration
}

// AvgFrameTime returns the mean render time per frame.
func (s FrameStats) AvgFrameTime() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.TotalFrameTime / time.Duration(s.Frames)
}

// Table returns a tabular representation of the stats.
func (s FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Stat", "Value"})
	table.Append([]string{"Frames", fmt.Sprintf("%d", s.Frames)})
	table.Append([]string{"Skipped ticks", fmt.Sprintf("%d", s.Skipped)})
	table.Append([]string{"Resizes", fmt.Sprintf("%d", s.Resizes)})
	table.Append([]string{"Scene version", fmt.Sprintf("%d", s.SceneVersion)})
	table.Append([]string{"Last frame", s.LastFrameTime.String()})
	table.Append([]string{"Avg frame", s.AvgFrameTime().String()})
	table.SetFooter([]string{"Total", s.TotalFrameTime.String()})
	table.Render()
	return buf.String()
}
