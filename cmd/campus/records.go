package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/campus/internal/client"
	"github.com/alfredjeanlab/campus/internal/idgen"
	"github.com/alfredjeanlab/campus/internal/model"
)

func collectionArg(s string) (model.Collection, error) {
	c, err := model.ParseCollection(s)
	if err != nil {
		return "", fmt.Errorf("%w (want announcements, schools or inquiries)", err)
	}
	return c, nil
}

func mutableCollectionArg(s string) (model.Collection, error) {
	c, err := collectionArg(s)
	if err != nil {
		return "", err
	}
	if !c.Mutable() {
		return "", fmt.Errorf("%s cannot be changed once submitted", c)
	}
	return c, nil
}

var listCmd = &cobra.Command{
	Use:     "list <collection>",
	Short:   "List announcements, schools or inquiries, newest first",
	GroupID: "records",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		ctx := context.Background()
		out := cmd.OutOrStdout()

		switch c {
		case model.CollectionSchools:
			list, err := api.ListSchools(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, list)
			}
			printSchoolTable(out, list)
		case model.CollectionAnnouncements:
			list, err := api.ListAnnouncements(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, list)
			}
			printAnnouncementTable(out, list)
		case model.CollectionInquiries:
			list, err := api.ListInquiries(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, list)
			}
			printInquiryTable(out, list)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <collection> <id>",
	Short:   "Show a single record",
	GroupID: "records",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		ctx, id := context.Background(), args[1]
		out := cmd.OutOrStdout()

		switch c {
		case model.CollectionSchools:
			s, err := api.GetSchool(ctx, id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, s)
			}
			printSchool(out, s)
		case model.CollectionAnnouncements:
			a, err := api.GetAnnouncement(ctx, id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, a)
			}
			printAnnouncement(out, a)
		case model.CollectionInquiries:
			i, err := api.GetInquiry(ctx, id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, i)
			}
			printInquiry(out, i)
		}
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:     "create <announcements|schools>",
	Short:   "Create an announcement or school",
	GroupID: "records",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mutableCollectionArg(args[0])
		if err != nil {
			return err
		}
		img, err := imageFlag(cmd)
		if err != nil {
			return err
		}
		ctx := context.Background()
		out := cmd.OutOrStdout()
		token := idgen.Token()

		switch c {
		case model.CollectionSchools:
			name, _ := cmd.Flags().GetString("name")
			s, err := api.CreateSchool(ctx, &client.SchoolRequest{Name: name, Image: img, ClientToken: token})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, s)
			}
			fmt.Fprintf(out, "Created school %s\n", s.ID)
		case model.CollectionAnnouncements:
			title, _ := cmd.Flags().GetString("title")
			date, _ := cmd.Flags().GetString("date")
			desc, _ := cmd.Flags().GetString("description")
			a, err := api.CreateAnnouncement(ctx, &client.AnnouncementRequest{
				Title: title, Date: date, Description: desc, Image: img, ClientToken: token,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, a)
			}
			fmt.Fprintf(out, "Created announcement %s\n", a.ID)
		}
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <announcements|schools> <id>",
	Short:   "Update fields of an announcement or school",
	GroupID: "records",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mutableCollectionArg(args[0])
		if err != nil {
			return err
		}
		img, err := imageFlag(cmd)
		if err != nil {
			return err
		}
		ctx, id := context.Background(), args[1]
		out := cmd.OutOrStdout()
		token := idgen.Token()

		switch c {
		case model.CollectionSchools:
			s, err := api.UpdateSchool(ctx, id, &client.SchoolUpdate{
				Name: changedString(cmd, "name"), Image: img, ClientToken: token,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, s)
			}
			fmt.Fprintf(out, "Updated school %s\n", s.ID)
		case model.CollectionAnnouncements:
			a, err := api.UpdateAnnouncement(ctx, id, &client.AnnouncementUpdate{
				Title:       changedString(cmd, "title"),
				Date:        changedString(cmd, "date"),
				Description: changedString(cmd, "description"),
				Image:       img,
				ClientToken: token,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, a)
			}
			fmt.Fprintf(out, "Updated announcement %s\n", a.ID)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <announcements|schools> <id>",
	Short:   "Delete an announcement or school and its image",
	GroupID: "records",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mutableCollectionArg(args[0])
		if err != nil {
			return err
		}
		ctx, id := context.Background(), args[1]

		switch c {
		case model.CollectionSchools:
			err = api.DeleteSchool(ctx, id)
		case model.CollectionAnnouncements:
			err = api.DeleteAnnouncement(ctx, id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", c.Entity(), id)
		return nil
	},
}

var inquireCmd = &cobra.Command{
	Use:     "inquire",
	Short:   "Submit a contact-form inquiry",
	GroupID: "records",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		get := func(name string) string {
			v, _ := cmd.Flags().GetString(name)
			return v
		}
		inq, err := api.CreateInquiry(context.Background(), &client.InquiryRequest{
			Name:        get("name"),
			Email:       get("email"),
			Phone:       get("phone"),
			Program:     get("program"),
			Grade:       get("grade"),
			Message:     get("message"),
			ClientToken: idgen.Token(),
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), inq)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Inquiry saved successfully! (%s)\n", inq.ID)
		return nil
	},
}

// changedString returns the flag's value only when it was set explicitly.
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func imageFlag(cmd *cobra.Command) (*client.Image, error) {
	path, _ := cmd.Flags().GetString("image")
	if path == "" {
		return nil, nil
	}
	return client.ImageFromFile(path)
}

func init() {
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().String("name", "", "school name")
		c.Flags().String("title", "", "announcement title")
		c.Flags().String("date", "", "announcement date")
		c.Flags().String("description", "", "announcement description")
		c.Flags().String("image", "", "path to a JPEG, PNG or GIF image (max 5 MiB)")
	}

	inquireCmd.Flags().String("name", "", "your name")
	inquireCmd.Flags().String("email", "", "email address")
	inquireCmd.Flags().String("phone", "", "phone number (optional)")
	inquireCmd.Flags().String("program", "", "program of interest")
	inquireCmd.Flags().String("grade", "", "grade level")
	inquireCmd.Flags().String("message", "", "message")
}
