package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/platform/password"
	"stockroom/internal/platform/product"
	"stockroom/internal/platform/user"
	"stockroom/pkg/utils"
)

var (
	apiBaseURL string
	username   string
	secret     string
)

type ResponseError struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *ResponseError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL).
		SetHeader("Accept", "application/json").
		SetError(&ResponseError{}).
		OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() >= 400 {
				if e, ok := resp.Error().(*ResponseError); ok && e.Message != "" {
					return e
				}
				return fmt.Errorf("request failed: %s", resp.Status())
			}

			return nil
		})
}

// apiServiceBase signs in and returns a client carrying the session cookie.
func apiServiceBase() (*resty.Client, error) {
	if secret == "" {
		secret = os.Getenv("STOCKROOM_PASSWORD")
	}
	if username == "" || secret == "" {
		return nil, errors.New("username and password are required")
	}

	client := newClient()

	resp, err := client.R().
		SetBody(map[string]string{
			"username": username,
			"password": secret,
		}).
		Post("/auth/login")
	if err != nil {
		return nil, err
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.CookieName {
			return client.SetCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value}), nil
		}
	}
	return nil, errors.New("login response carried no session")
}

var rootCmd = &cobra.Command{
	Use:          "stockroom",
	Short:        "Stockroom CLI",
	SilenceUsage: true,
}

var initAdminCmd = &cobra.Command{
	Use:   "init-admin [username]",
	Short: "Create the first admin account directly in the database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "admin"
		if len(args) == 1 {
			name = args[0]
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		pw, _ := cmd.Flags().GetString("admin-password")
		if pw == "" {
			if pw, err = utils.GenerateSecret(16); err != nil {
				return err
			}
		}

		userService := user.NewService(db, password.NewHasher(cfg.BcryptCost))

		created, err := userService.Create(context.Background(), name, pw, database.RoleAdmin)
		if errors.Is(err, user.ErrUsernameTaken) {
			fmt.Println("Admin user already exists")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println("User ID  :", created.ID)
		fmt.Println("Username :", created.Username)
		fmt.Println("Role     :", created.Role)
		fmt.Println("Password :", pw)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a new user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiServiceBase()
		if err != nil {
			return err
		}

		role, _ := cmd.Flags().GetString("role")
		pw, err := utils.GenerateSecret(12)
		if err != nil {
			return err
		}

		resp, err := client.R().
			SetBody(map[string]string{
				"username": args[0],
				"password": pw,
				"role":     role,
			}).
			SetResult(&database.User{}).
			Post("/users")
		if err != nil {
			return err
		}

		created := resp.Result().(*database.User)

		fmt.Println("User ID  :", created.ID)
		fmt.Println("Username :", created.Username)
		fmt.Println("Role     :", created.Role)
		fmt.Println("Password :", pw)
		return nil
	},
}

var userUnlockCmd = &cobra.Command{
	Use:   "unlock <user_id>",
	Short: "Clear a login lock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiServiceBase()
		if err != nil {
			return err
		}

		if _, err := client.R().Post(fmt.Sprintf("/users/%s/unlock", args[0])); err != nil {
			return err
		}

		fmt.Println("Unlocked user", args[0])
		return nil
	},
}

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Manage stock",
}

var stockDeductCmd = &cobra.Command{
	Use:   "deduct <product_code> <quantity>",
	Short: "Deduct stock by product code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}

		client, err := apiServiceBase()
		if err != nil {
			return err
		}

		resp, err := client.R().
			SetBody(map[string]any{
				"product_code": args[0],
				"quantity":     quantity,
			}).
			SetResult(&database.Product{}).
			Post("/products/deduct-stock")
		if err != nil {
			return err
		}

		p := resp.Result().(*database.Product)

		fmt.Println("Code  :", p.Code)
		fmt.Println("Name  :", p.Name)
		fmt.Println("Stock :", p.Stock)
		return nil
	},
}

var stockStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stock level buckets",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiServiceBase()
		if err != nil {
			return err
		}

		multiplier, _ := cmd.Flags().GetFloat64("multiplier")

		resp, err := client.R().
			SetQueryParam("multiplier", strconv.FormatFloat(multiplier, 'f', -1, 64)).
			SetResult(&product.StockStats{}).
			Get("/stock-stats")
		if err != nil {
			return err
		}

		stats := resp.Result().(*product.StockStats)

		fmt.Println("Sold out     :", stats.SoldOut)
		fmt.Println("Low stock    :", stats.LowStock)
		fmt.Println("Medium stock :", stats.MediumStock)
		fmt.Println("High stock   :", stats.HighStock)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Snapshot all products to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiServiceBase()
		if err != nil {
			return err
		}

		var result struct {
			Key   string `json:"key"`
			Count int    `json:"count"`
		}
		if _, err := client.R().SetResult(&result).Post("/products/export"); err != nil {
			return err
		}

		fmt.Println("Key      :", result.Key)
		fmt.Println("Products :", result.Count)
		return nil
	},
}

func main() {
	initAdminCmd.Flags().String("admin-password", "", "admin password (generated when empty)")
	userCreateCmd.Flags().String("role", database.RoleUser, "role of the new user (admin or user)")
	stockStatsCmd.Flags().Float64("multiplier", 3, "medium stock upper bound as a multiple of the restock level")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userUnlockCmd)
	stockCmd.AddCommand(stockDeductCmd)
	stockCmd.AddCommand(stockStatsCmd)
	rootCmd.AddCommand(initAdminCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(exportCmd)

	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", "http://localhost:3000/api", "API base URL")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "username to sign in with")
	rootCmd.PersistentFlags().StringVarP(&secret, "password", "p", "", "password to sign in with (or STOCKROOM_PASSWORD)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
