package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thebluefowl/s3toolbox/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively write the config file",
	Long:  `Prompts for the S3 region, profile and endpoint and saves them to the config file. Credentials are resolved from the environment unless static keys are entered.`,
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	color.New(color.BgWhite).Println("Set up s3toolbox")
	fmt.Println()

	if err := askS3Config(cfg); err != nil {
		return err
	}

	if err := config.Save(*cfg, configPath); err != nil {
		return err
	}

	path := configPath
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	color.Green("✓ Configuration saved successfully!")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		BorderForeground(lipgloss.Color("63"))
	fmt.Println(boxStyle.Render(fmt.Sprintf("Config: %s", path)))

	return nil
}

func askS3Config(cfg *config.Config) error {
	questions := []*survey.Question{
		{
			Name: "region",
			Prompt: &survey.Input{
				Message: "AWS Region:",
				Default: cfg.S3.Region,
				Help:    "Leave empty to use AWS_REGION or the shared config",
			},
		},
		{
			Name: "profile",
			Prompt: &survey.Input{
				Message: "Shared config profile:",
				Default: cfg.S3.Profile,
				Help:    "Leave empty for the default profile",
			},
		},
		{
			Name: "endpoint",
			Prompt: &survey.Input{
				Message: "Custom endpoint:",
				Default: cfg.S3.Endpoint,
				Help:    "Only for S3-compatible services, e.g. http://localhost:9000",
			},
		},
		{
			Name: "pathstyle",
			Prompt: &survey.Confirm{
				Message: "Use path-style addressing?",
				Default: cfg.S3.UsePathStyle,
			},
		},
		{
			Name: "statickeys",
			Prompt: &survey.Confirm{
				Message: "Store static access keys in the config file?",
				Default: false,
			},
		},
	}

	var answers struct {
		Region     string
		Profile    string
		Endpoint   string
		PathStyle  bool
		StaticKeys bool
	}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	cfg.S3.Region = answers.Region
	cfg.S3.Profile = answers.Profile
	cfg.S3.Endpoint = answers.Endpoint
	cfg.S3.UsePathStyle = answers.PathStyle

	if !answers.StaticKeys {
		return nil
	}

	color.Yellow(lipgloss.NewStyle().Width(60).Render("⚠ Keys are stored in plain text. Prefer environment variables or a shared config profile where possible."))

	keyQuestions := []*survey.Question{
		{
			Name:     "accesskey",
			Prompt:   &survey.Input{Message: "Access Key ID:"},
			Validate: survey.Required,
		},
		{
			Name:     "secretkey",
			Prompt:   &survey.Password{Message: "Secret Access Key:"},
			Validate: survey.Required,
		},
	}

	var keys struct {
		AccessKey string
		SecretKey string
	}
	if err := survey.Ask(keyQuestions, &keys); err != nil {
		return err
	}

	cfg.S3.AccessKey = keys.AccessKey
	cfg.S3.SecretKey = keys.SecretKey
	return nil
}
