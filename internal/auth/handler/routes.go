package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, auth *AuthHandler, verification *VerificationHandler, oauth *OAuthHandler) {
	app.Post("/api/auth/register", auth.Register)
	app.Post("/api/auth/login", auth.Login)
	app.Get("/api/auth/logout", auth.Logout)

	app.Post("/api/auth/verification-mail", verification.SendMail)
	app.Post("/api/auth/verify-email", verification.VerifyEmail)

	app.Get("/api/auth/google", oauth.GoogleLogin)
	app.Get("/api/auth/github", oauth.GithubLogin)
	app.Get("/api/auth/callback/google", oauth.GoogleCallback)
	app.Get("/api/auth/callback/github", oauth.GithubCallback)

	app.Post("/api/profile", auth.Profile)
}
