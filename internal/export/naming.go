package export

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/checho651/bfx-report/internal/registry"
)

// DefaultExt is the file extension used when a request names none
const DefaultExt = "csv"

const (
	// dateLayout renders a day as Www-Mmm-DD-YYYY, e.g. Thu-Oct-15-2026
	dateLayout = "Mon-Jan-02-2006"
	// timestampLayout is ISO-8601 with milliseconds, before ":" is replaced
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// LabelResolver maps a method and its flags to an export label
type LabelResolver interface {
	ResolveLabel(method string, flags registry.LabelFlags) string
}

// labelOverrider is a LabelResolver that can layer request overrides on top
// of its table
type labelOverrider interface {
	WithOverrides(overrides any) *registry.Registry
}

// requestLabels returns the resolver for one request, with the request's
// fileNamesMap applied when labels supports overrides
func requestLabels(labels LabelResolver, params NameParams) LabelResolver {
	if params.FileNamesMap == nil {
		return labels
	}
	if o, ok := labels.(labelOverrider); ok {
		return o.WithOverrides(params.FileNamesMap)
	}
	return labels
}

// NamingOptions are the caller's choices for the output file name
type NamingOptions struct {
	// UserInfo prefixes the name with "<UserInfo>_" when set
	UserInfo string
	// Ext is the extension without the dot. Nil selects DefaultExt and an
	// empty string drops the extension.
	Ext           *string
	IsMultiExport bool
	// IsAddedUniqueEndingToCsvName appends "-<token>" to the name
	IsAddedUniqueEndingToCsvName bool
	// UniqEnding is the token; empty means a random one is generated
	UniqEnding string
}

// NameParams are the request params that shape the file name
type NameParams struct {
	// Start and End bound the exported window; zero means unset
	Start int64
	End   int64
	// IsBaseNameInName keeps only the label and the current date
	IsBaseNameInName bool
	Flags            registry.LabelFlags
	// FileNamesMap holds per-request label overrides as read from the
	// params. It is applied only when it is a valid table of pairs.
	FileNamesMap any
}

// NewToken returns a random uniqueness token
func NewToken() string {
	return uuid.NewString()
}

// CompleteFileName derives the output file name of an export. With the
// unique ending off the name is fully determined by its inputs.
//
// Base-name-only and multi-collection exports are named
// <label>_<date><ending><ext>; every other export carries its window and the
// generation time: <label>_FROM_<start>_TO_<end>_ON_<timestamp><ending><ext>.
// A missing start is the epoch and a missing end is now.
func CompleteFileName(
	labels LabelResolver, method string, params NameParams, opts NamingOptions, now time.Time, newToken func() string,
) string {
	flags := params.Flags
	flags.IsMultiExport = opts.IsMultiExport
	label := requestLabels(labels, params).ResolveLabel(method, flags)

	now = now.UTC()
	today := formatDate(now)

	var b strings.Builder
	if opts.UserInfo != "" {
		b.WriteString(opts.UserInfo)
		b.WriteByte('_')
	}
	b.WriteString(label)
	b.WriteByte('_')

	if params.IsBaseNameInName || opts.IsMultiExport {
		b.WriteString(today)
	} else {
		end := today
		if params.End != 0 {
			end = formatDate(time.UnixMilli(params.End))
		}
		b.WriteString("FROM_")
		b.WriteString(formatDate(time.UnixMilli(params.Start)))
		b.WriteString("_TO_")
		b.WriteString(end)
		b.WriteString("_ON_")
		b.WriteString(strings.ReplaceAll(now.Format(timestampLayout), ":", "-"))
	}

	if opts.IsAddedUniqueEndingToCsvName {
		token := opts.UniqEnding
		if token == "" {
			token = newToken()
		}
		b.WriteByte('-')
		b.WriteString(token)
	}

	ext := DefaultExt
	if opts.Ext != nil {
		ext = *opts.Ext
	}
	if ext != "" {
		b.WriteByte('.')
		b.WriteString(ext)
	}
	return b.String()
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
