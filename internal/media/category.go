package media

import (
	"fmt"
	"strings"
	"time"
)

// Category is a fixed business classification of a stored asset.
// It decides the storage directory, upload limits and cache lifetime.
type Category string

const (
	CategoryNews         Category = "news"
	CategoryGallery      Category = "gallery"
	CategoryBulletins    Category = "bulletins"
	CategoryDocuments    Category = "documents"
	CategoryAvatars      Category = "avatars"
	CategoryEvents       Category = "events"
	CategoryAchievements Category = "achievements"
	CategoryBanners      Category = "banners"

	// CategoryAssets is the static assets zone. It is served but never uploaded to.
	CategoryAssets Category = "assets"
)

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

const mb = 1024 * 1024

// Kind groups the accepted file types of a category.
type Kind int

const (
	KindImage Kind = iota + 1
	KindDocument
)

type allowList struct {
	extensions map[string]bool
	mimeTypes  map[string]bool
	message    string
}

var allowLists = map[Kind]allowList{
	KindImage: {
		extensions: map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true},
		mimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/jpg":  true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
		},
		message: "only image files are allowed (jpeg, jpg, png, gif, webp)",
	},
	KindDocument: {
		extensions: map[string]bool{".pdf": true, ".doc": true, ".docx": true},
		mimeTypes: map[string]bool{
			"application/pdf":    true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		},
		message: "only PDF and Word documents are allowed",
	},
}

// Policy is the per-category row of the policy table.
type Policy struct {
	Category  Category
	Dir       string // directory under the uploads root
	Prefix    string // generated filename prefix
	FormField string
	MaxBytes  int64
	Kind      Kind
	Roles     []string

	ProdCacheDays int
	DevCacheDays  int
	Immutable     bool // only honoured in production

	// Placeholder is the assets-relative path, without extension, served
	// in place of a missing file. Empty means missing files are a 404.
	Placeholder string
}

var policies = map[Category]Policy{
	CategoryNews: {
		Category: CategoryNews, Dir: "news", Prefix: "news", FormField: "image",
		MaxBytes: 5 * mb, Kind: KindImage, Roles: []string{RoleAdmin},
		ProdCacheDays: 7, DevCacheDays: 1,
		Placeholder: "img/blog/blog-31",
	},
	CategoryGallery: {
		Category: CategoryGallery, Dir: "gallery", Prefix: "gallery", FormField: "image",
		MaxBytes: 5 * mb, Kind: KindImage, Roles: []string{RoleAdmin},
		ProdCacheDays: 7, DevCacheDays: 1,
	},
	CategoryBulletins: {
		Category: CategoryBulletins, Dir: "bulletins", Prefix: "bulletin", FormField: "file",
		MaxBytes: 10 * mb, Kind: KindDocument, Roles: []string{RoleAdmin},
		ProdCacheDays: 7, DevCacheDays: 1,
	},
	CategoryDocuments: {
		Category: CategoryDocuments, Dir: "documents", Prefix: "doc", FormField: "file",
		MaxBytes: 5 * mb, Kind: KindDocument, Roles: []string{RoleAdmin, RoleTeacher},
		ProdCacheDays: 7, DevCacheDays: 1,
	},
	CategoryAvatars: {
		Category: CategoryAvatars, Dir: "avatars", Prefix: "avatar", FormField: "image",
		MaxBytes: 2 * mb, Kind: KindImage, Roles: []string{RoleAdmin, RoleTeacher, RoleStudent},
		ProdCacheDays: 7, DevCacheDays: 1,
	},
	CategoryEvents: {
		Category: CategoryEvents, Dir: "events", Prefix: "event", FormField: "image",
		MaxBytes: 5 * mb, Kind: KindImage, Roles: []string{RoleAdmin},
		ProdCacheDays: 7, DevCacheDays: 1,
	},
	CategoryAchievements: {
		Category: CategoryAchievements, Dir: "achievements", Prefix: "achievement", FormField: "image",
		MaxBytes: 5 * mb, Kind: KindImage, Roles: []string{RoleAdmin},
		ProdCacheDays: 7, DevCacheDays: 1,
	},
	CategoryBanners: {
		Category: CategoryBanners, Dir: "banners", Prefix: "banner", FormField: "image",
		MaxBytes: 5 * mb, Kind: KindImage, Roles: []string{RoleAdmin},
		ProdCacheDays: 7, DevCacheDays: 1,
	},
	CategoryAssets: {
		Category:      CategoryAssets,
		ProdCacheDays: 30, DevCacheDays: 1,
		Immutable: true,
	},
}

// uploadsDefault applies to files under the uploads root that sit outside
// every known category directory.
var uploadsDefault = Policy{ProdCacheDays: 7, DevCacheDays: 1}

// uploadOrder keeps route registration and directory creation deterministic.
var uploadOrder = []Category{
	CategoryNews,
	CategoryGallery,
	CategoryBulletins,
	CategoryDocuments,
	CategoryAvatars,
	CategoryEvents,
	CategoryAchievements,
	CategoryBanners,
}

// UploadCategories returns every category that accepts uploads.
func UploadCategories() []Category {
	out := make([]Category, len(uploadOrder))
	copy(out, uploadOrder)
	return out
}

// Lookup returns the policy for a category.
func Lookup(c Category) (Policy, bool) {
	p, ok := policies[c]
	return p, ok
}

// MustLookup panics on an unknown category. Use it only with the constants above.
func MustLookup(c Category) Policy {
	p, ok := policies[c]
	if !ok {
		panic(fmt.Sprintf("media: unknown category %q", c))
	}
	return p
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	_, ok := policies[c]
	return c, ok
}

// Uploadable reports whether files may be uploaded into the category.
func (p Policy) Uploadable() bool {
	return p.MaxBytes > 0
}

// CacheDays returns the cache lifetime in days for the given mode.
func (p Policy) CacheDays(production bool) int {
	if production {
		return p.ProdCacheDays
	}
	return p.DevCacheDays
}

// MaxAge returns the cache lifetime for the given mode.
func (p Policy) MaxAge(production bool) time.Duration {
	return time.Duration(p.CacheDays(production)) * 24 * time.Hour
}

// CacheControl renders the Cache-Control header value for the given mode.
func (p Policy) CacheControl(production bool) string {
	v := fmt.Sprintf("public, max-age=%d", int64(p.MaxAge(production)/time.Second))
	if production && p.Immutable {
		v += ", immutable"
	}
	return v
}

// AllowsExtension reports whether a lower-cased extension (with the dot) is accepted.
func (p Policy) AllowsExtension(ext string) bool {
	return allowLists[p.Kind].extensions[strings.ToLower(ext)]
}

// AllowsMIME reports whether a media type is accepted. Parameters are ignored.
func (p Policy) AllowsMIME(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	return allowLists[p.Kind].mimeTypes[mimeType]
}

// TypeMessage is the human readable explanation shown when a type is rejected.
func (p Policy) TypeMessage() string {
	return allowLists[p.Kind].message
}

// SizeMessage is the human readable explanation shown when a file is too large.
func (p Policy) SizeMessage() string {
	return fmt.Sprintf("file exceeds the %d MB limit for %s", p.MaxBytes/mb, p.Category)
}

// AllowsRole reports whether role may upload into the category.
func (p Policy) AllowsRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
