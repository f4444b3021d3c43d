// handlers/challenge.go
package handlers

import (
	"daily-challenge-pack/middleware"
	"daily-challenge-pack/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService) {
	// 🔓 Public routes — no user context, but still behind Gateway auth
	app.Get("/daily-challenge", challengeService.GetDailyChallenge)
	app.Post("/guess", challengeService.SubmitGuess)
	app.Get("/leaderboard", challengeService.GetLeaderboard)

	// 🔐 Secured routes — require user context (userID, roles), enforced via middleware
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/submit-score", challengeService.SubmitScore)
	secured.Get("/my-stats", challengeService.GetMyStats)
	secured.Get("/my-history", challengeService.GetMyHistory)
}
