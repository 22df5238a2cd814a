package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

func ValidateRegister(email, username, firstName, lastName, password string) ValidationErrors {
	errs := make(ValidationErrors)

	// Email
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	// Username
	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) < 3 {
		errs.Add("username", "Username must be at least 3 characters")
	} else if len(username) > 50 {
		errs.Add("username", "Username is too long")
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Username can only contain letters, numbers, _, . and -")
	}

	// Names are optional
	if len(strings.TrimSpace(firstName)) > 100 {
		errs.Add("first_name", "First name is too long")
	}
	if len(strings.TrimSpace(lastName)) > 100 {
		errs.Add("last_name", "Last name is too long")
	}

	// Password
	validatePassword(password, errs)

	return errs
}

// ValidateLogin accepts an email or a username in login.
func ValidateLogin(login, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(login) == "" {
		errs.Add("login", "Email or username is required")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateGalleryImage(imageURL string) ValidationErrors {
	errs := make(ValidationErrors)
	validateURL("url", imageURL, true, errs)
	return errs
}

func ValidateEvent(title, description, imageURL string) ValidationErrors {
	errs := make(ValidationErrors)

	title = strings.TrimSpace(title)
	if title == "" {
		errs.Add("title", "Title is required")
	} else if len(title) > 200 {
		errs.Add("title", "Title is too long")
	}

	if strings.TrimSpace(description) == "" {
		errs.Add("description", "Description is required")
	}

	validateURL("image_url", imageURL, true, errs)

	return errs
}

func validateURL(field, raw string, required bool, errs ValidationErrors) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			errs.Add(field, "URL is required")
		}
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add(field, "Must be an http or https URL")
	}
}

func validatePassword(password string, errs ValidationErrors) {
	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
