package server

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"viralpik/internal/middleware"
	"viralpik/internal/models"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errResponseWritten means a helper already wrote the response. Handlers
// return nil when they see it so the ErrorHandler does not overwrite it.
var errResponseWritten = errors.New("response already written")

const maxPageSize = 100

// Pagination is a clamped limit/offset pair from the query string.
type Pagination struct {
	Limit  int
	Offset int
}

func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	p := Pagination{
		Limit:  c.QueryInt("limit", defaultLimit),
		Offset: max(c.QueryInt("offset", 0), 0),
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	p.Limit = min(p.Limit, maxPageSize)
	return p
}

// parseID reads a positive route parameter. A bad value gets a 400 naming
// the parameter, e.g. "Invalid asset ID" for assetId.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	if id, err := c.ParamsInt(param); err == nil && id > 0 {
		return uint(id), nil
	}
	_ = models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewValidationError("Invalid "+humanizeParam(param)))
	return 0, errResponseWritten
}

// humanizeParam turns a camelCase route parameter into words.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	stem, ok := strings.CutSuffix(param, "Id")
	if !ok {
		return param
	}
	var b strings.Builder
	for i, r := range stem {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String() + " ID"
}

// currentUserID returns the authenticated user set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// viewerID is the authenticated user when a valid token is present, else 0.
func (s *Server) viewerID(c *fiber.Ctx) uint {
	if id := currentUserID(c); id != 0 {
		return id
	}
	id, _ := s.optionalUserID(c)
	return id
}

func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.HTTPStatus(err), err)
}

// isAdminByUserID reads the admin bit straight from the database so a
// revoked admin loses access without waiting for cache expiry.
func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	if s.db == nil {
		if s.profileRepo == nil {
			return false, nil
		}
		profile, err := s.profileRepo.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return profile.IsAdmin, nil
	}

	var profile models.Profile
	err := s.db.WithContext(ctx).Select("is_admin").First(&profile, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return profile.IsAdmin, nil
}

// initServices builds every service up front so request handlers never
// race on the lazy getters below.
func (s *Server) initServices() {
	s.assetSvc()
	s.profileSvc()
	s.socialSvc()
	s.commentSvc()
	s.collectionSvc()
	s.downloadSvc()
	s.authSvc()
	s.settingsSvc()
	s.supportSvc()
	s.uploadSvc()
	s.adminSvc()
}

func (s *Server) assetSvc() *service.AssetService {
	if s.assetService == nil {
		s.assetService = service.NewAssetService(s.assetRepo, s.catalog, s.featureFlags, s.isAdminByUserID)
	}
	return s.assetService
}

func (s *Server) profileSvc() *service.ProfileService {
	if s.profileService == nil {
		s.profileService = service.NewProfileService(s.profileRepo, s.socialRepo)
	}
	return s.profileService
}

func (s *Server) socialSvc() *service.SocialService {
	if s.socialService == nil {
		s.socialService = service.NewSocialService(s.socialRepo, s.assetRepo, s.profileRepo, s.collectionRepo)
	}
	return s.socialService
}

func (s *Server) commentSvc() *service.CommentService {
	if s.commentService == nil {
		s.commentService = service.NewCommentService(s.commentRepo, s.assetRepo)
	}
	return s.commentService
}

func (s *Server) collectionSvc() *service.CollectionService {
	if s.collectionService == nil {
		s.collectionService = service.NewCollectionService(s.collectionRepo, s.assetRepo)
	}
	return s.collectionService
}

func (s *Server) downloadSvc() *service.DownloadService {
	if s.downloadService == nil {
		s.downloadService = service.NewDownloadService(s.assetRepo, s.profileRepo, s.downloadRepo, s.redis, s.config)
	}
	return s.downloadService
}

func (s *Server) authSvc() *service.AuthService {
	if s.authService == nil {
		if s.tokens == nil {
			secret := ""
			if s.config != nil {
				secret = s.config.JWTSecret
			}
			s.tokens = middleware.NewTokens(secret)
		}
		var mailer service.Mailer
		if s.mailer != nil {
			mailer = s.mailer
		}
		publicURL := ""
		if s.config != nil {
			publicURL = s.config.PublicBaseURL
		}
		s.authService = service.NewAuthService(s.profileRepo, s.tokens, s.redis, mailer, publicURL)
	}
	return s.authService
}

func (s *Server) settingsSvc() *service.SettingsService {
	if s.settingsService == nil {
		s.settingsService = service.NewSettingsService(s.prefsRepo)
	}
	return s.settingsService
}

func (s *Server) supportSvc() *service.SupportService {
	if s.supportService == nil {
		var mailer service.SupportMailer
		inbox := ""
		if s.mailer != nil {
			mailer = s.mailer
			inbox = s.config.SupportInbox
		}
		s.supportService = service.NewSupportService(s.supportRepo, mailer, inbox)
	}
	return s.supportService
}

func (s *Server) uploadSvc() *service.UploadService {
	if s.uploadService == nil {
		maxMB := 0
		if s.config != nil {
			maxMB = s.config.MaxUploadSizeMB
		}
		s.uploadService = service.NewUploadService(s.store, maxMB)
	}
	return s.uploadService
}

func (s *Server) adminSvc() *service.AdminService {
	if s.adminService == nil {
		s.adminService = service.NewAdminService(s.assetRepo, s.profileRepo, s.downloadRepo)
	}
	return s.adminService
}
