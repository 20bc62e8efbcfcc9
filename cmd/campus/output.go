package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func printSchoolTable(w io.Writer, schools []model.School) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tIMAGE\tCREATED")
	for _, s := range schools {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ui.RenderAccent(s.ID), truncate(s.Name, 40), s.Image, formatTime(s.CreatedAt))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d schools\n", len(schools))
}

func printAnnouncementTable(w io.Writer, list []model.Announcement) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tIMAGE")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ui.RenderAccent(a.ID), a.Date, truncate(a.Title, 50), a.Image)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d announcements\n", len(list))
}

func printInquiryTable(w io.Writer, list []model.Inquiry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECEIVED\tNAME\tEMAIL\tPROGRAM\tGRADE")
	for _, i := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ui.RenderAccent(i.ID), formatTime(i.Timestamp), truncate(i.Name, 30), i.Email, i.Program, i.Grade)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d inquiries\n", len(list))
}

func printSchool(w io.Writer, s *model.School) {
	fmt.Fprintf(w, "ID:          %s\n", s.ID)
	fmt.Fprintf(w, "Name:        %s\n", s.Name)
	fmt.Fprintf(w, "Image:       %s\n", s.Image)
	if s.ImageURL != "" {
		fmt.Fprintf(w, "Image URL:   %s\n", s.ImageURL)
	}
	fmt.Fprintf(w, "Created At:  %s\n", formatTime(s.CreatedAt))
	fmt.Fprintf(w, "Updated At:  %s\n", formatTime(s.UpdatedAt))
}

func printAnnouncement(w io.Writer, a *model.Announcement) {
	fmt.Fprintf(w, "ID:          %s\n", a.ID)
	fmt.Fprintf(w, "Title:       %s\n", a.Title)
	fmt.Fprintf(w, "Date:        %s\n", a.Date)
	fmt.Fprintf(w, "Description: %s\n", a.Description)
	fmt.Fprintf(w, "Image:       %s\n", a.Image)
	if a.ImageURL != "" {
		fmt.Fprintf(w, "Image URL:   %s\n", a.ImageURL)
	}
	fmt.Fprintf(w, "Created At:  %s\n", formatTime(a.CreatedAt))
	fmt.Fprintf(w, "Updated At:  %s\n", formatTime(a.UpdatedAt))
}

func printInquiry(w io.Writer, i *model.Inquiry) {
	fmt.Fprintf(w, "ID:          %s\n", i.ID)
	fmt.Fprintf(w, "Name:        %s\n", i.Name)
	fmt.Fprintf(w, "Email:       %s\n", i.Email)
	if i.Phone != "" {
		fmt.Fprintf(w, "Phone:       %s\n", i.Phone)
	}
	fmt.Fprintf(w, "Program:     %s\n", i.Program)
	fmt.Fprintf(w, "Grade:       %s\n", i.Grade)
	fmt.Fprintf(w, "Message:     %s\n", i.Message)
	fmt.Fprintf(w, "Received:    %s\n", formatTime(i.Timestamp))
}
