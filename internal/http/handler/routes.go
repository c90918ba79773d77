package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sitedocs/internal/http/middleware"
	"sitedocs/internal/model"
	"sitedocs/internal/service"
)

// Device context header names. All optional; absent values are recorded as
// "unknown" downstream, never rejected.
const (
	HeaderDeviceModel = "X-Device-Model"
	HeaderDeviceOS    = "X-Device-OS"
	HeaderDeviceSDK   = "X-Device-SDK"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// The documents group sits behind authmw, which must store the verified actor
// user id in context locals.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, authmw fiber.Handler) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	docs := app.Group("/documents", authmw)
	docs.Get("/", ListDocuments(docSvc))
	docs.Get("/trash", ListTrash(docSvc))
	docs.Post("/", CreateDocument(docSvc))
	docs.Post("/purge-expired", PurgeExpired(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Patch("/:id", UpdateDocument(docSvc))
	docs.Post("/:id/trash", TrashDocument(docSvc))
	docs.Post("/:id/restore", RestoreDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))
}

// requestMeta collects the verified actor and the optional device context
// from the request so the service layer never touches HTTP state.
func requestMeta(c *fiber.Ctx) service.RequestMeta {
	return service.RequestMeta{
		ActorID: middleware.ActorFromCtx(c),
		Device: model.DeviceContext{
			DeviceModel: c.Get(HeaderDeviceModel),
			OSVersion:   c.Get(HeaderDeviceOS),
			SDKVersion:  c.Get(HeaderDeviceSDK),
			IPAddress:   c.IP(),
		},
	}
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

func pageParams(c *fiber.Ctx) (limit, offset int, err error) {
	limit, err = strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, err
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// ListDocuments lists active documents with limit & offset, optionally
// scoped to one project via ?project_id=.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := pageParams(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGINATION", "invalid limit or offset")
		}
		res, err := docSvc.ListActive(c.UserContext(), c.Query("project_id"), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ListTrash lists trashed documents.
func ListTrash(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := pageParams(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGINATION", "invalid limit or offset")
		}
		res, err := docSvc.ListTrashed(c.UserContext(), c.Query("project_id"), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

type createDocumentRequest struct {
	ProjectID    string `json:"project_id" form:"project_id"`
	Name         string `json:"name" form:"name"`
	Description  string `json:"description" form:"description"`
	Type         string `json:"type" form:"type"`
	ExternalLink string `json:"external_link" form:"external_link"`
}

// CreateDocument uploads a new document. File-backed types use
// multipart/form-data with a "file" field; EXTERNAL_LINK accepts plain JSON.
func CreateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		in := service.CreateDocumentInput{
			ProjectID:    req.ProjectID,
			Name:         req.Name,
			Description:  req.Description,
			Type:         model.DocumentType(req.Type),
			ExternalLink: req.ExternalLink,
		}

		if in.Type != model.DocumentTypeExternalLink {
			fh, err := c.FormFile("file")
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
			}
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			in.File = f
			in.FileName = fh.Filename
			in.ContentType = ct
			in.Size = fh.Size
		}

		doc, err := docSvc.Create(c.UserContext(), in, requestMeta(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns a document by ID.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

type updateDocumentRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	ProjectID    *string `json:"project_id"`
	Type         *string `json:"type"`
	ExternalLink *string `json:"external_link"`
}

// UpdateDocument applies a partial metadata update.
func UpdateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		in := service.UpdateMetadataInput{
			Name:         req.Name,
			Description:  req.Description,
			ProjectID:    req.ProjectID,
			ExternalLink: req.ExternalLink,
		}
		if req.Type != nil {
			t := model.DocumentType(*req.Type)
			in.Type = &t
		}

		doc, err := docSvc.UpdateMetadata(c.UserContext(), id, in, requestMeta(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// TrashDocument soft-deletes a document.
func TrashDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Trash(c.UserContext(), id, requestMeta(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// RestoreDocument moves a trashed document back to active.
func RestoreDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Restore(c.UserContext(), id, requestMeta(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument permanently removes a document and its file.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.PermanentlyDelete(c.UserContext(), id, requestMeta(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PurgeExpired sweeps trashed documents past the retention window.
func PurgeExpired(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := docSvc.PurgeExpired(c.UserContext(), requestMeta(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DownloadDocument resolves a download URL and records the download fact.
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := docSvc.DownloadURL(c.UserContext(), id, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": link})
	}
}
