package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 80

var (
	humanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")) // Magenta

	subQueryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")) // Cyan

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Gray
)

type output struct {
	Query          string   `json:"query"`
	Answer         string   `json:"answer"`
	Status         string   `json:"status"`
	SubQueries     []string `json:"sub_queries,omitempty"`
	FromCheckpoint bool     `json:"from_checkpoint"`
}

func emit(out output) error {
	if flagJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if flagSubQueries {
		for _, sq := range out.SubQueries {
			printBanner(subQueryStyle, "Sub Query", sq)
		}
	}

	printBanner(answerStyle, "AI Response", wrap(out.Answer, barWidth))

	if out.FromCheckpoint {
		fmt.Println(noteStyle.Render("(served from checkpoint)"))
	}
	return nil
}

// printBanner frames a titled section: a bar, the colored title line
// centered with "=" fill, another bar, then the text when non-empty.
func printBanner(style lipgloss.Style, title, text string) {
	bar := strings.Repeat("=", barWidth)
	fmt.Println(bar)
	fmt.Println(style.Render(center(" "+title+" ", barWidth, "=")))
	fmt.Println(bar)
	if text != "" {
		fmt.Println("\n" + text + "\n")
	}
}

func center(s string, width int, fill string) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(fill, left) + s + strings.Repeat(fill, right)
}

// wrap re-flows text onto lines no longer than width, breaking on spaces.
func wrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var b strings.Builder
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			b.WriteString(line)
			b.WriteByte('\n')
			line = word
			continue
		}
		line += " " + word
	}
	b.WriteString(line)
	return b.String()
}
