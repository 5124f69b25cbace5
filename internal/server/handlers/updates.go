package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/database"
	"github.com/cdennis121/Shipyard/internal/logger"
	"github.com/cdennis121/Shipyard/internal/models"
	"github.com/cdennis121/Shipyard/internal/services"
)

// binaryExtensions are the artifact suffixes served as direct
// downloads from the update path.
var binaryExtensions = []string{
	".exe", ".msi", ".dmg", ".pkg", ".AppImage", ".deb", ".rpm",
	".zip", ".tar.gz", ".blockmap", ".nupkg",
}

// GetUpdate serves GET /updates/:appSlug/:file. The trailing segment is
// either a channel manifest request ("stable.yml", "beta-mac.yml") or a
// literal artifact filename ("App-Setup-1.2.3.exe").
func GetUpdate(c *fiber.Ctx) error {
	slug := c.Params("appSlug")
	segment := c.Params("file")
	if !models.ValidSlug(slug) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid app slug")
	}

	if isBinaryDownload(segment) {
		return serveDownload(c, slug, segment)
	}
	if isChannelFile(segment) {
		return serveManifest(c, slug, segment)
	}
	return fiber.NewError(fiber.StatusBadRequest, "invalid request path")
}

// DownloadFile serves GET /updates/:appSlug/download/:filename, the
// explicit download form of the same path.
func DownloadFile(c *fiber.Ctx) error {
	slug := c.Params("appSlug")
	if !models.ValidSlug(slug) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid app slug")
	}
	return serveDownload(c, slug, c.Params("filename"))
}

func serveManifest(c *fiber.Ctx, slug, channelFile string) error {
	platform := platformFromChannelFile(channelFile)
	if platform == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid channel file")
	}

	q := services.UpdateQuery{
		AppSlug:   slug,
		Channel:   baseChannel(channelFile),
		Platform:  platform,
		ClientID:  c.Get("x-client-id"),
		Key:       extractAPIKey(c),
		IP:        clientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}

	manifest, err := services.ResolveManifest(c.UserContext(), database.DB, q)
	if err != nil {
		return mapUpdateError(c, err, "manifest", slug)
	}

	body, err := manifest.Encode()
	if err != nil {
		logger.Errorf("encode manifest for %s: %v", slug, err)
		return fiber.ErrInternalServerError
	}
	c.Set(fiber.HeaderContentType, "application/x-yaml")
	c.Set(fiber.HeaderCacheControl, "public, max-age=60")
	return c.Send(body)
}

func serveDownload(c *fiber.Ctx, slug, filename string) error {
	q := services.UpdateQuery{
		AppSlug:   slug,
		Key:       extractAPIKey(c),
		IP:        clientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}

	url, err := services.ResolveDownload(c.UserContext(), database.DB, Store, q, filename)
	if err != nil {
		return mapUpdateError(c, err, "download", slug)
	}
	return c.Redirect(url, fiber.StatusFound)
}

// mapUpdateError translates service outcomes to the wire taxonomy.
// Internal faults collapse to a bare 500 so their cause never leaks.
func mapUpdateError(c *fiber.Ctx, err error, op, slug string) error {
	switch {
	case errors.Is(err, services.ErrNotEligible):
		// Empty success: "nothing to do right now", distinct from 404.
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, services.ErrNotFound):
		return fiber.ErrNotFound
	case errors.Is(err, services.ErrKeyRequired):
		return fiber.NewError(fiber.StatusUnauthorized, "api key required for private release")
	case errors.Is(err, services.ErrKeyInvalid):
		return fiber.NewError(fiber.StatusForbidden, "invalid or expired api key")
	default:
		logger.Errorf("%s %s: %v", op, slug, err)
		return fiber.ErrInternalServerError
	}
}

// extractAPIKey pulls the presented credential from the request.
// Precedence: x-api-key header, Authorization header (with an optional
// case-insensitive Bearer prefix), then the key query parameter.
func extractAPIKey(c *fiber.Ctx) string {
	if v := c.Get("x-api-key"); v != "" {
		return v
	}
	if authz := c.Get(fiber.HeaderAuthorization); authz != "" {
		if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
			return strings.TrimSpace(authz[7:])
		}
		return authz
	}
	return c.Query("key")
}

func clientIP(c *fiber.Ctx) string {
	if v := c.Get("x-forwarded-for"); v != "" {
		return v
	}
	if v := c.Get("x-real-ip"); v != "" {
		return v
	}
	return c.IP()
}

func isChannelFile(path string) bool {
	return strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml")
}

func isBinaryDownload(path string) bool {
	for _, ext := range binaryExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// platformFromChannelFile maps the channel-file suffix to a platform:
// "-mac.yml" and "-linux.yml" are explicit, a bare ".yml" is windows.
func platformFromChannelFile(channelFile string) string {
	switch {
	case strings.HasSuffix(channelFile, "-mac.yml"):
		return "mac"
	case strings.HasSuffix(channelFile, "-linux.yml"):
		return "linux"
	case strings.HasSuffix(channelFile, ".yml"):
		return "windows"
	default:
		return ""
	}
}

func baseChannel(channelFile string) string {
	channelFile = strings.TrimSuffix(channelFile, "-mac.yml")
	channelFile = strings.TrimSuffix(channelFile, "-linux.yml")
	return strings.TrimSuffix(channelFile, ".yml")
}
