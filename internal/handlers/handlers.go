package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/imageproof/internal/auth"
	"github.com/example/imageproof/internal/usecase"
)

// MaxUploadSize bounds accepted image uploads.
const MaxUploadSize = 10 << 20

var allowedContentTypes = map[string]bool{
	"image/tiff": true,
	"image/tif":  true,
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.VerdictUseCase, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	secured := router.Group("/", authMiddleware)

	secured.POST("/verify", func(c *gin.Context) {
		userID, ok := auth.UserID(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		if file.Size > MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
			return
		}
		if contentType := file.Header.Get("Content-Type"); contentType != "" {
			if !allowedContentTypes[strings.ToLower(contentType)] {
				c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported content type"})
				return
			}
		}

		// The declaration defaults to false: an absent or malformed field is
		// treated as "no digital tools used".
		aiDeclared, _ := strconv.ParseBool(c.PostForm("ai_declared"))

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}

		requestID, report, err := uc.VerifyUpload(c.Request.Context(), userID, file.Filename, data, aiDeclared)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"request_id": requestID,
			"verdict":    report,
		})
	})

	secured.GET("/result/:id", func(c *gin.Context) {
		userID, ok := auth.UserID(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		requestID := c.Param("id")

		log, err := uc.GetResult(c.Request.Context(), userID, requestID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}

		checks := json.RawMessage(log.Checks)
		if log.Checks == "" {
			checks = json.RawMessage("null")
		}
		c.JSON(http.StatusOK, gin.H{
			"request_id": log.RequestID,
			"user_id":    log.UserID,
			"file":       log.File,
			"status":     log.Status,
			"risk":       log.Risk,
			"reason":     log.Reason,
			"checks":     checks,
			"created_at": log.CreatedAt,
		})
	})

	secured.GET("/result/:id/duplicates", func(c *gin.Context) {
		userID, ok := auth.UserID(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		report, err := uc.GetDuplicateReport(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"request_id":      report.Request.RequestID,
			"exact_matches":   report.Exact,
			"near_matches":    report.Near,
			"exact_count":     len(report.Exact),
			"near_count":      len(report.Near),
			"sha1_hash":       report.Request.SHA1Hash,
			"perceptual_hash": report.Request.DHash,
		})
	})

	secured.GET("/metrics", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}
