package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"g2-mqtt/g2"
)

// 将通道表输出为 Markdown 表格
func main() {
	if err := render(os.Stdout, g2.DefaultRegistry()); err != nil {
		log.Fatalf("Failed to render channel table: %v", err)
	}
}

func render(w io.Writer, reg *g2.Registry) error {
	rows := [][]string{
		{"Datatype", "Unit", "Channel", "Description"},
		{"---", "---", "---", "---"},
	}
	for _, ch := range reg.Channels() {
		rows = append(rows, []string{ch.Name, ch.Unit, strconv.Itoa(int(ch.Code)), ""})
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, "|", strings.Join(row, "|"), "|"); err != nil {
			return err
		}
	}
	return nil
}
