package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/api"
	"github.com/mehari-dev/cliniccall/internal/session"
	"github.com/mehari-dev/cliniccall/internal/ui"
)

var (
	flagName  string
	flagEmail string
	flagRole  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a doctor or patient account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagRole != "doctor" && flagRole != "patient" {
			return fmt.Errorf("role must be doctor or patient")
		}
		if flagName == "" || flagEmail == "" {
			return fmt.Errorf("--name and --email are required")
		}
		return runRegister()
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagEmail == "" {
			return fmt.Errorf("--email is required")
		}
		return runLogin()
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.Clear(); err != nil {
			return err
		}
		ui.PrintSuccess("Logged out.")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&flagName, "name", "", "Full name")
	registerCmd.Flags().StringVar(&flagEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&flagRole, "role", "patient", "Account role: doctor or patient")
	registerConnectionFlags(registerCmd)

	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Email address")
	registerConnectionFlags(loginCmd)

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd)
}

func runRegister() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := newAPIClient(cfg, nil)
	err = client.Register(ctx, api.RegisterInput{
		Name:     flagName,
		Email:    flagEmail,
		Password: password,
		Role:     flagRole,
	})
	if err != nil {
		return err
	}

	ui.PrintSuccessf("Account created for %s. Log in with: cliniccall login --email %s", flagName, flagEmail)
	return nil
}

func runLogin() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stop := ui.RunSpinner("Logging in...")
	client := newAPIClient(cfg, nil)
	result, err := client.Login(ctx, api.Credentials{Email: flagEmail, Password: password})
	stop()
	if err != nil {
		return err
	}

	sess := &session.Session{
		Token:      result.Token,
		Role:       result.User.Role,
		UserID:     result.User.ID,
		DoctorID:   result.DoctorID,
		PatientID:  result.PatientID,
		SecretCode: result.SecretCode,
	}
	if err := session.Save(sess); err != nil {
		return err
	}

	icon := ui.IconPatient
	if sess.IsDoctor() {
		icon = ui.IconDoctor
	}
	ui.PrintSuccessf("Logged in as %s %s (%s)", icon, result.User.Name, result.User.Role)
	if sess.IsDoctor() && sess.SecretCode != "" {
		ui.PrintInfof("Your secret code for patient lookups: %s %s", ui.IconKey, sess.SecretCode)
	}
	return nil
}

func promptPassword(prompt string) (string, error) {
	if fromEnv := os.Getenv("CLINICCALL_PASSWORD"); fromEnv != "" {
		return fromEnv, nil
	}

	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}
