package entity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CanonicalKey is the only place storage keys are derived. Grant issuance,
// verification and variant resolution must all go through it.
func CanonicalKey(id uuid.UUID, extension string) string {
	return fmt.Sprintf("images/%s/image-%s.%s", id, id, extension)
}

// ExtensionOf returns the lower-cased text after the last dot of name,
// or "" when there is none.
func ExtensionOf(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}

	return strings.ToLower(name[i+1:])
}

// ReplaceExtension swaps the extension of name: car.jpg -> car.png.
func ReplaceExtension(name, extension string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}

	return name + "." + extension
}

var extensionMimetypes = map[string]string{
	"jpg":  "image/jpg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// MimetypeOf maps a supported extension to the mimetype served for it.
func MimetypeOf(extension string) string {
	return extensionMimetypes[strings.ToLower(extension)]
}

func SupportedExtension(extension string) bool {
	_, ok := extensionMimetypes[extension]
	return ok
}
