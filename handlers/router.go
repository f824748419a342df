package handlers

import (
	"net/http"

	"manuscript-workflow/middleware"
	"manuscript-workflow/models"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Profile    *ProfileHandler
	Submission *SubmissionHandler
	Manuscript *ManuscriptHandler
	Reviewer   *ReviewerHandler
	Issue      *IssueHandler
}

// Register mounts the API on router. auth must put a models.Actor in the
// context (middleware.AuthMiddleware).
func (hs Handlers) Register(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	editor := middleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(auth)
	{
		protected.GET("/profile", hs.Profile.GetProfile)
		protected.GET("/notifications", hs.Profile.GetNotifications)

		submissions := protected.Group("/submissions")
		{
			submissions.POST("", hs.Submission.Start)
			submissions.GET("/:id", hs.Submission.GetSession)
			submissions.PUT("/:id/steps/:step", hs.Submission.SaveStep)
			submissions.POST("/:id/navigate", hs.Submission.Navigate)
			submissions.POST("/:id/preview", hs.Submission.RecordPreview)
			submissions.POST("/:id/preview/:preview_id/view", hs.Submission.ViewPreview)
			submissions.POST("/:id/submit", hs.Submission.Submit)
		}

		manuscripts := protected.Group("/manuscripts")
		{
			manuscripts.GET("", hs.Manuscript.GetManuscripts)
			manuscripts.GET("/:id", hs.Manuscript.GetManuscript)
			manuscripts.GET("/:id/history", hs.Manuscript.GetHistory)
			manuscripts.GET("/:id/readiness", editor, hs.Manuscript.GetReadiness)
			manuscripts.POST("/:id/transition", editor, hs.Manuscript.Transition)
			manuscripts.POST("/:id/doi", editor, hs.Manuscript.GenerateDOI)
			manuscripts.PUT("/:id/final-pdf", editor, hs.Manuscript.AttachFinalPDF)

			manuscripts.POST("/:id/reviewers", editor, hs.Reviewer.Assign)
			manuscripts.DELETE("/:id/reviewers/:reviewer_id", editor, hs.Reviewer.Remove)
			manuscripts.POST("/:id/reviewers/:reviewer_id/respond", hs.Reviewer.Respond)
			manuscripts.POST("/:id/reviewers/:reviewer_id/begin", hs.Reviewer.BeginReview)
			manuscripts.POST("/:id/reviewers/:reviewer_id/review", hs.Reviewer.SubmitReview)
			manuscripts.POST("/:id/reviewers/:reviewer_id/relay", editor, hs.Reviewer.RelayComments)
		}

		protected.GET("/reviews", hs.Reviewer.GetMyAssignments)

		issues := protected.Group("/issues")
		{
			issues.GET("", hs.Issue.GetIssues)
			issues.POST("", editor, hs.Issue.EnsureIssue)
			issues.GET("/:volume/:number/next-article-number", editor, hs.Issue.NextArticleNumber)
			issues.POST("/:volume/:number/articles", editor, hs.Issue.PublishInto)
		}
	}
}
