package accounts

import (
	"net/url"
	"strings"
	"time"

	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/models"
)

const maxHolderNameLen = 255

// validatePin enforces the configured PIN shape: 4-6 digits by default, no
// uniform PINs (0000), no strictly sequential runs in either direction
// (1234, 4321).
func validatePin(rules common.RulesConfig, pin string) error {
	if len(pin) < rules.PinMin || len(pin) > rules.PinMax {
		return models.NewError(models.CodeInvalidPinFormat,
			"pin must be %d-%d digits", rules.PinMin, rules.PinMax)
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return models.NewError(models.CodeInvalidPinFormat, "pin must contain only digits")
		}
	}

	if rules.RejectUniform {
		uniform := true
		for i := 1; i < len(pin); i++ {
			if pin[i] != pin[0] {
				uniform = false
				break
			}
		}
		if uniform {
			return models.NewError(models.CodeInvalidPinFormat, "pin must not repeat a single digit")
		}
	}

	if rules.RejectSequential {
		ascending, descending := true, true
		for i := 1; i < len(pin); i++ {
			if pin[i] != pin[i-1]+1 {
				ascending = false
			}
			if pin[i] != pin[i-1]-1 {
				descending = false
			}
		}
		if ascending || descending {
			return models.NewError(models.CodeInvalidPinFormat, "pin must not be a sequential run")
		}
	}

	return nil
}

// validatePhone enforces the configured digits-only length window.
func validatePhone(rules common.RulesConfig, phone string) error {
	if len(phone) < rules.PhoneMin || len(phone) > rules.PhoneMax {
		return models.NewError(models.CodeInvalidPhone,
			"phone number must be %d-%d digits", rules.PhoneMin, rules.PhoneMax)
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return models.NewError(models.CodeInvalidPhone, "phone number must contain only digits")
		}
	}
	return nil
}

func validateHolderName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.NewError(models.CodeValidation, "holder name is required")
	}
	if len(name) > maxHolderNameLen {
		return models.NewError(models.CodeValidation,
			"holder name exceeds %d characters", maxHolderNameLen)
	}
	return nil
}

// validateAge requires the holder to be at least 18 on the day of account
// opening. Exactly 18 today is accepted.
func validateAge(dob time.Time, now time.Time) error {
	if dob.IsZero() {
		return models.NewError(models.CodeValidation, "date of birth is required")
	}
	eighteenth := dob.AddDate(18, 0, 0)
	today := now.UTC().Truncate(24 * time.Hour)
	if eighteenth.UTC().Truncate(24 * time.Hour).After(today) {
		return models.NewError(models.CodeAgeRestriction,
			"account holder must be at least 18 years old")
	}
	return nil
}

func validatePrivilege(p models.Privilege) error {
	if !models.ValidPrivilege(p) {
		return models.NewError(models.CodeInvalidPrivilege, "unknown privilege %q", p)
	}
	return nil
}

// validateWebsite shape-checks an optional website URL.
func validateWebsite(site string) error {
	if site == "" {
		return nil
	}
	u, err := url.Parse(site)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return models.NewError(models.CodeValidation, "website must be a valid http(s) URL")
	}
	return nil
}
