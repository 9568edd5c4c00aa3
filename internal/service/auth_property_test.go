package service

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pu-ac-cn/srm-backend/internal/model"
)

// 任意用户连续 5 次登录失败后账户被锁定，正确密码也无法登录
func TestProperty_LoginFailureLocking(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	usernameGen := gen.SliceOfN(10, gen.AlphaLowerChar()).Map(func(chars []rune) string {
		return "user" + string(chars)
	})

	properties.Property("连续5次失败后锁定", prop.ForAll(
		func(username string) bool {
			userRepo := &memUserRepo{newMemStore()}
			svc := NewAuthService(userRepo, nil)
			ctx := context.Background()

			user := &model.User{Username: username, Email: username + "@test.com", Status: model.StatusActive}
			if err := user.SetPassword("Correct123"); err != nil {
				return false
			}
			if err := userRepo.Create(ctx, user); err != nil {
				return false
			}

			for i := 0; i < 5; i++ {
				if _, err := svc.Authenticate(ctx, username, "WrongPass1"); err != ErrInvalidCredentials {
					t.Logf("第 %d 次尝试期望 ErrInvalidCredentials", i+1)
					return false
				}
			}

			_, err := svc.Authenticate(ctx, username, "Correct123")
			return err == ErrAccountLocked
		},
		usernameGen,
	))

	properties.TestingRun(t)
}

// 密码强度检查与字符类别判定一致
func TestProperty_PasswordStrength(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("密码强度检查一致性", prop.ForAll(
		func(password string) bool {
			result := IsPasswordStrong(password)
			if len(password) < 8 {
				return !result
			}

			var hasUpper, hasLower, hasDigit bool
			for _, c := range password {
				switch {
				case c >= 'A' && c <= 'Z':
					hasUpper = true
				case c >= 'a' && c <= 'z':
					hasLower = true
				case c >= '0' && c <= '9':
					hasDigit = true
				}
			}
			return result == (hasUpper && hasLower && hasDigit)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
