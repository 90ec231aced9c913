package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/models"
	"github.com/spf13/cobra"
)

var verifyUserCmd = &cobra.Command{
	Use:   "verify-user <username>",
	Short: "Grant the verified badge to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := findUser(args[0])
		if err != nil {
			return err
		}
		if user.IsVerified {
			fmt.Printf("%s is already verified\n", user.Username)
			return nil
		}
		if err := database.DB.Model(user).UpdateColumn("is_verified", true).Error; err != nil {
			return fmt.Errorf("failed to verify user: %w", err)
		}
		fmt.Printf("Verified %s (%s)\n", user.Username, user.ID)
		return nil
	},
}

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin <username>",
	Short: "Grant admin privileges to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := findUser(args[0])
		if err != nil {
			return err
		}
		if user.IsAdmin {
			fmt.Printf("%s is already an admin\n", user.Username)
			return nil
		}
		if err := database.DB.Model(user).UpdateColumn("is_admin", true).Error; err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}
		fmt.Printf("Promoted %s (%s) to admin\n", user.Username, user.ID)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print table row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		counts := map[string]int64{}
		for name, model := range map[string]interface{}{
			"users":                 &models.User{},
			"follows":               &models.Follow{},
			"posts":                 &models.Post{},
			"hashtags":              &models.Hashtag{},
			"post_hashtags":         &models.PostHashtag{},
			"likes":                 &models.Like{},
			"comments":              &models.Comment{},
			"verification_requests": &models.VerificationRequest{},
			"suggestion_events":     &models.SuggestionEvent{},
		} {
			var n int64
			if err := database.DB.Model(model).Count(&n).Error; err != nil {
				return fmt.Errorf("failed to count %s: %w", name, err)
			}
			counts[name] = n
		}

		if output == "json" {
			return json.NewEncoder(os.Stdout).Encode(counts)
		}
		for _, name := range []string{
			"users", "follows", "posts", "hashtags", "post_hashtags",
			"likes", "comments", "verification_requests", "suggestion_events",
		} {
			fmt.Printf("%-22s %d\n", name, counts[name])
		}
		return nil
	},
}

func findUser(username string) (*models.User, error) {
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return &user, nil
}
