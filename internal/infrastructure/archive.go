package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

var (
	// zipLocalHeader starts every non-empty zip archive
	zipLocalHeader = []byte{0x50, 0x4B, 0x03, 0x04}
	// zipEndOfDirectory starts an archive with no entries
	zipEndOfDirectory = []byte{0x50, 0x4B, 0x05, 0x06}
)

const (
	signatureLength = 4
	previewLength   = 1024
)

// ValidateArchive checks the leading bytes of data against the zip signatures.
// It does not parse the archive structure.
func ValidateArchive(data []byte) error {
	if len(data) >= signatureLength {
		head := data[:signatureLength]
		if bytes.Equal(head, zipLocalHeader) || bytes.Equal(head, zipEndOfDirectory) {
			return nil
		}
	}

	head := data
	if len(head) > signatureLength {
		head = head[:signatureLength]
	}
	reason := ""
	if len(data) < signatureLength {
		reason = fmt.Sprintf("only %d bytes received", len(data))
	}
	return &domain.InvalidArchiveError{
		Head:    append([]byte(nil), head...),
		Preview: textPreview(data, previewLength),
		Reason:  reason,
	}
}

// textPreview decodes the start of a body as text so HTML or JSON error pages are readable
func textPreview(data []byte, limit int) string {
	if len(data) > limit {
		data = data[:limit]
	}
	var sb strings.Builder
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		switch {
		case r == utf8.RuneError && size <= 1:
			sb.WriteRune('.')
		case r == '\n' || r == '\t':
			sb.WriteRune(' ')
		case unicode.IsPrint(r) || r == ' ':
			sb.WriteRune(r)
		default:
			sb.WriteRune('.')
		}
	}
	return strings.TrimSpace(sb.String())
}

// ExtractAudio reads every allow-listed file member of a validated archive into memory.
// Each member is read up to maxMemberSize+1 bytes so oversized members can be
// reported by the persister without being fully inflated.
// It returns *domain.EmptyArchiveError when nothing matches.
func ExtractAudio(ctx context.Context, data []byte, allow domain.AllowList, maxMemberSize int64) ([]domain.ExtractedAsset, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &domain.InvalidArchiveError{Reason: err.Error()}
	}

	var (
		assets  []domain.ExtractedAsset
		members []string
	)
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file.FileInfo().IsDir() || strings.HasSuffix(file.Name, "/") {
			continue
		}
		members = append(members, file.Name)

		ext, ok := allow.Match(file.Name)
		if !ok {
			continue
		}

		asset, err := readMember(file, ext, maxMemberSize)
		if err != nil {
			return nil, &domain.InvalidArchiveError{Reason: fmt.Sprintf("failed to read member %s: %v", file.Name, err)}
		}
		assets = append(assets, asset)
	}

	if len(assets) == 0 {
		return nil, &domain.EmptyArchiveError{Members: members, Allowed: []string(allow)}
	}
	return assets, nil
}

func readMember(file *zip.File, ext string, maxMemberSize int64) (domain.ExtractedAsset, error) {
	rc, err := file.Open()
	if err != nil {
		return domain.ExtractedAsset{}, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxMemberSize > 0 {
		r = io.LimitReader(rc, maxMemberSize+1)
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return domain.ExtractedAsset{}, err
	}

	size := int64(file.UncompressedSize64)
	if int64(len(buf)) > size {
		size = int64(len(buf))
	}
	return domain.ExtractedAsset{
		MemberName: file.Name,
		Data:       buf,
		Extension:  ext,
		Size:       size,
	}, nil
}
