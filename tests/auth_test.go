package tests

import (
	"testing"
)

const testPassword = "Passw0rd!"

// RegisterRequest represents user registration request
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
	Phone           string `json:"phone,omitempty"`
}

// LoginRequest represents user login request
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	PlatformId int    `json:"platform_id"`
}

// LoginResponse represents user login response
type LoginResponse struct {
	Token    string   `json:"token"`
	UserInfo UserInfo `json:"user_info"`
}

// UserInfo represents user info
type UserInfo struct {
	Id          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

func TestAuth_Register(t *testing.T) {
	client := NewAPIClient()
	email := generateEmail("register")

	t.Run("register new user", func(t *testing.T) {
		resp, err := client.POST("/auth/register", RegisterRequest{
			Email:           email,
			Password:        testPassword,
			ConfirmPassword: testPassword,
			DisplayName:     "Test User",
		})
		if err != nil {
			t.Fatalf("register request failed: %v", err)
		}

		AssertSuccess(t, resp, "register should succeed")

		var userInfo UserInfo
		if err := resp.ParseData(&userInfo); err != nil {
			t.Fatalf("parse user info failed: %v", err)
		}

		if userInfo.Email != email {
			t.Errorf("expected email=%s, got %s", email, userInfo.Email)
		}
		if userInfo.DisplayName != "Test User" {
			t.Errorf("expected display_name=Test User, got %s", userInfo.DisplayName)
		}
		if userInfo.Id == "" {
			t.Error("expected a generated user id")
		}
	})

	t.Run("register duplicate email", func(t *testing.T) {
		resp, err := client.POST("/auth/register", RegisterRequest{
			Email:           email,
			Password:        testPassword,
			ConfirmPassword: testPassword,
			DisplayName:     "Second User",
		})
		if err != nil {
			t.Fatalf("register request failed: %v", err)
		}

		AssertError(t, resp, 2007, "should return email taken error")
	})

	t.Run("register invalid email", func(t *testing.T) {
		resp, err := client.POST("/auth/register", RegisterRequest{
			Email:           "not-an-email",
			Password:        testPassword,
			ConfirmPassword: testPassword,
			DisplayName:     "Test User",
		})
		if err != nil {
			t.Fatalf("register request failed: %v", err)
		}

		AssertError(t, resp, 1101, "should reject malformed email")
	})

	t.Run("register weak password", func(t *testing.T) {
		resp, err := client.POST("/auth/register", RegisterRequest{
			Email:           generateEmail("weak"),
			Password:        "password",
			ConfirmPassword: "password",
			DisplayName:     "Test User",
		})
		if err != nil {
			t.Fatalf("register request failed: %v", err)
		}

		AssertError(t, resp, 1102, "should reject weak password")
	})

	t.Run("register password mismatch", func(t *testing.T) {
		resp, err := client.POST("/auth/register", RegisterRequest{
			Email:           generateEmail("mismatch"),
			Password:        testPassword,
			ConfirmPassword: testPassword + "x",
			DisplayName:     "Test User",
		})
		if err != nil {
			t.Fatalf("register request failed: %v", err)
		}

		AssertError(t, resp, 1103, "should reject mismatched confirmation")
	})
}

func TestAuth_Login(t *testing.T) {
	client := NewAPIClient()
	email := generateEmail("login")

	resp, err := client.POST("/auth/register", RegisterRequest{
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		DisplayName:     "Login User",
	})
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	AssertSuccess(t, resp)

	t.Run("login success", func(t *testing.T) {
		resp, err := client.POST("/auth/login", LoginRequest{
			Email:      email,
			Password:   testPassword,
			PlatformId: 5,
		})
		if err != nil {
			t.Fatalf("login request failed: %v", err)
		}

		AssertSuccess(t, resp, "login should succeed")

		var login LoginResponse
		if err := resp.ParseData(&login); err != nil {
			t.Fatalf("parse login response failed: %v", err)
		}
		if login.Token == "" {
			t.Error("expected a token")
		}
	})

	t.Run("login wrong password", func(t *testing.T) {
		resp, err := client.POST("/auth/login", LoginRequest{
			Email:      email,
			Password:   "Wr0ng!pass",
			PlatformId: 5,
		})
		if err != nil {
			t.Fatalf("login request failed: %v", err)
		}

		AssertError(t, resp, 2008, "should reject wrong password")
	})

	t.Run("login unknown email", func(t *testing.T) {
		resp, err := client.POST("/auth/login", LoginRequest{
			Email:      generateEmail("ghost"),
			Password:   testPassword,
			PlatformId: 5,
		})
		if err != nil {
			t.Fatalf("login request failed: %v", err)
		}

		AssertError(t, resp, 2006, "should report unknown user")
	})
}

func TestAuth_Logout(t *testing.T) {
	client, _ := registerAndLogin(t, "logout")

	resp, err := client.POST("/auth/logout", nil)
	if err != nil {
		t.Fatalf("logout request failed: %v", err)
	}
	AssertSuccess(t, resp, "logout should succeed")

	// The token is invalidated server side.
	resp, err = client.GET("/user/profile")
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	if resp.IsSuccess() {
		t.Error("expected profile fetch to fail after logout")
	}
}

func TestAuth_PasswordResetRequest(t *testing.T) {
	client := NewAPIClient()

	// Unknown emails succeed silently, the endpoint never reveals
	// whether an account exists.
	resp, err := client.POST("/auth/password/forgot", map[string]string{
		"email": generateEmail("unknown"),
	})
	if err != nil {
		t.Fatalf("forgot request failed: %v", err)
	}
	AssertSuccess(t, resp, "forgot should not leak account existence")
}

func TestAuth_ResetPasswordBadToken(t *testing.T) {
	client := NewAPIClient()

	resp, err := client.POST("/auth/password/reset", map[string]string{
		"token":        "no-such-token",
		"new_password": testPassword,
	})
	if err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	AssertError(t, resp, 2009, "should reject unknown reset token")
}
