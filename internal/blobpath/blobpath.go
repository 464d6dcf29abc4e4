// Package blobpath maps shop/category/item identifiers to object store paths.
package blobpath

import (
	"path"
	"strings"

	"github.com/wichananm65/retail-shop-backend/internal/apperr"
)

// ThumbnailName is the canonical category thumbnail filename.
const ThumbnailName = "category.jpg"

// FolderMarker is the placeholder object that makes an empty prefix visible.
const FolderMarker = ".keep"

var imageExts = []string{".jpg", ".jpeg", ".png", ".webp"}

// Resolve returns "shop/category/name". The name is trimmed and gets a .jpg
// extension unless it already ends in .jpg or .jpeg, so "a.png" becomes
// "a.png.jpg". Uploads are stored as JPEG; .png and .webp are only recognised
// by IsImage when listing objects written by other tools. Identifiers are
// used verbatim; no escaping is applied.
func Resolve(shop, category, rawName string) (string, error) {
	if shop == "" {
		return "", apperr.Validation("shop is required")
	}
	if category == "" {
		return "", apperr.Validation("category is required")
	}
	name := NormalizeName(rawName)
	if name == "" {
		return "", apperr.Validation("file name is required")
	}
	return shop + "/" + category + "/" + name, nil
}

// NormalizeName trims whitespace and coerces the extension to .jpg.
func NormalizeName(rawName string) string {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return name
	}
	return name + ".jpg"
}

// Prefix joins parts into a folder prefix ending in "/".
func Prefix(parts ...string) string {
	return strings.Join(parts, "/") + "/"
}

// Marker returns the folder marker object path for a prefix.
func Marker(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + FolderMarker
}

// IsImage reports whether name has an image extension (case-insensitive).
func IsImage(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// IsFolderMarker reports whether name is a prefix placeholder rather than content.
func IsFolderMarker(name string) bool {
	n := strings.TrimSpace(name)
	return n == "" || strings.HasSuffix(n, "/") || path.Base(n) == FolderMarker
}

// Base returns the final path element.
func Base(p string) string {
	return path.Base(p)
}
