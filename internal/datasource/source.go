// Package datasource declares file-backed data sources for a feature store.
//
// A FileSource points a feature-store registry at one object in an
// S3-compatible bucket and names the columns that drive point-in-time joins.
// It carries no behaviour: the registry and the object-store client do all
// of the reading. Values are immutable and safe to share between goroutines.
//
// Usage:
//
//	src, err := datasource.New(datasource.Options{
//	    Name:                   "driver_stats_source",
//	    Bucket:                 "featurestore",
//	    Key:                    "infra/driver_stats.parquet",
//	    EndpointOverride:       "http://minio.kubeflow:9000",
//	    TimestampField:         "event_timestamp",
//	    CreatedTimestampColumn: "created",
//	    Description:            "A table describing the stats of a driver based on hourly logs",
//	    Owner:                  "test2@gmail.com",
//	})
package datasource

import (
	"maps"
	"strings"

	"github.com/koustreak/featurerepo/internal/errs"
	"github.com/koustreak/featurerepo/internal/objectstore"
)

// FileFormat is the columnar format of the backing object.
type FileFormat string

const (
	FormatParquet FileFormat = "parquet"
	FormatDelta   FileFormat = "delta"
)

// Options are the literal inputs of a declaration. Either Path or
// Bucket+Key identifies the object; when both are set they must agree.
type Options struct {
	Name string

	Path   string // s3://bucket/key
	Bucket string
	Key    string

	EndpointOverride string

	TimestampField         string
	CreatedTimestampColumn string

	Description string
	Owner       string

	// Optional. FileFormat defaults to FormatParquet.
	FileFormat   FileFormat
	FieldMapping map[string]string // source column -> feature column
	Tags         map[string]string
}

// FileSource is a validated, immutable data-source declaration.
type FileSource struct {
	name                   string
	path                   objectstore.URI
	endpoint               *objectstore.Endpoint
	timestampField         string
	createdTimestampColumn string
	description            string
	owner                  string
	format                 FileFormat
	fieldMapping           map[string]string
	tags                   map[string]string
}

// New validates opts and returns the declaration. It performs no I/O.
//
// Errors name the offending field: validation errors for the name, storage
// path, timestamp columns, description, owner, format and field mapping;
// endpoint errors for endpoint_override.
func New(opts Options) (*FileSource, error) {
	if isBlank(opts.Name) {
		return nil, errs.Field(errs.ErrKindValidation, "name", "must not be empty")
	}

	path, err := resolvePath(opts)
	if err != nil {
		return nil, err
	}

	endpoint, err := objectstore.ParseEndpoint("endpoint_override", opts.EndpointOverride)
	if err != nil {
		return nil, err
	}

	if isBlank(opts.TimestampField) {
		return nil, errs.Field(errs.ErrKindValidation, "timestamp_field", "must not be empty")
	}
	if isBlank(opts.CreatedTimestampColumn) {
		return nil, errs.Field(errs.ErrKindValidation, "created_timestamp_column", "must not be empty")
	}
	if opts.TimestampField == opts.CreatedTimestampColumn {
		return nil, errs.Field(errs.ErrKindValidation, "created_timestamp_column",
			"must differ from timestamp_field")
	}
	if isBlank(opts.Description) {
		return nil, errs.Field(errs.ErrKindValidation, "description", "must not be empty")
	}
	if isBlank(opts.Owner) {
		return nil, errs.Field(errs.ErrKindValidation, "owner", "must not be empty")
	}

	format := opts.FileFormat
	switch format {
	case "":
		format = FormatParquet
	case FormatParquet, FormatDelta:
	default:
		return nil, errs.Field(errs.ErrKindValidation, "file_format",
			"unsupported format \""+string(format)+"\" (expected parquet or delta)")
	}

	for from, to := range opts.FieldMapping {
		if isBlank(from) || isBlank(to) {
			return nil, errs.Field(errs.ErrKindValidation, "field_mapping",
				"column names must not be empty")
		}
	}

	return &FileSource{
		name:                   opts.Name,
		path:                   path,
		endpoint:               endpoint,
		timestampField:         opts.TimestampField,
		createdTimestampColumn: opts.CreatedTimestampColumn,
		description:            opts.Description,
		owner:                  opts.Owner,
		format:                 format,
		fieldMapping:           cloneOrNil(opts.FieldMapping),
		tags:                   cloneOrNil(opts.Tags),
	}, nil
}

func resolvePath(opts Options) (objectstore.URI, error) {
	hasParts := opts.Bucket != "" || opts.Key != ""

	switch {
	case opts.Path == "" && !hasParts:
		return objectstore.URI{}, errs.Field(errs.ErrKindValidation, "storage_path",
			"either path or bucket and key are required")
	case opts.Path == "":
		return objectstore.NewURI(opts.Bucket, opts.Key)
	}

	path, err := objectstore.ParseURI(opts.Path)
	if err != nil {
		return objectstore.URI{}, err
	}
	if hasParts && (path.Bucket != opts.Bucket || path.Key != opts.Key) {
		return objectstore.URI{}, errs.Field(errs.ErrKindValidation, "storage_path",
			"path "+path.String()+" disagrees with bucket and key")
	}
	return path, nil
}

func (s *FileSource) Name() string                            { return s.name }
func (s *FileSource) Path() objectstore.URI                   { return s.path }
func (s *FileSource) StoragePath() string                     { return s.path.String() }
func (s *FileSource) EndpointOverride() *objectstore.Endpoint { return s.endpoint }
func (s *FileSource) TimestampField() string                  { return s.timestampField }
func (s *FileSource) CreatedTimestampColumn() string          { return s.createdTimestampColumn }
func (s *FileSource) Description() string                     { return s.description }
func (s *FileSource) Owner() string                           { return s.owner }
func (s *FileSource) FileFormat() FileFormat                  { return s.format }

// FieldMapping returns a copy of the column rename map.
func (s *FileSource) FieldMapping() map[string]string {
	return cloneOrNil(s.fieldMapping)
}

// Tags returns a copy of the tag map.
func (s *FileSource) Tags() map[string]string {
	return cloneOrNil(s.tags)
}

// FeatureColumn maps a source column through the field mapping.
func (s *FileSource) FeatureColumn(column string) string {
	if to, ok := s.fieldMapping[column]; ok {
		return to
	}
	return column
}

// Equal reports whether both declarations carry the same values.
func (s *FileSource) Equal(other *FileSource) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.name == other.name &&
		s.path == other.path &&
		s.endpoint.String() == other.endpoint.String() &&
		s.timestampField == other.timestampField &&
		s.createdTimestampColumn == other.createdTimestampColumn &&
		s.description == other.description &&
		s.owner == other.owner &&
		s.format == other.format &&
		maps.Equal(s.fieldMapping, other.fieldMapping) &&
		maps.Equal(s.tags, other.tags)
}

// Summary is the plain, serialisable view of a FileSource.
type Summary struct {
	Name                   string            `json:"name" yaml:"name"`
	Path                   string            `json:"path" yaml:"path"`
	EndpointOverride       string            `json:"endpoint_override" yaml:"endpoint_override"`
	TimestampField         string            `json:"timestamp_field" yaml:"timestamp_field"`
	CreatedTimestampColumn string            `json:"created_timestamp_column" yaml:"created_timestamp_column"`
	Description            string            `json:"description" yaml:"description"`
	Owner                  string            `json:"owner" yaml:"owner"`
	FileFormat             FileFormat        `json:"file_format" yaml:"file_format"`
	FieldMapping           map[string]string `json:"field_mapping,omitempty" yaml:"field_mapping,omitempty"`
	Tags                   map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Describe returns the serialisable view of s.
func (s *FileSource) Describe() Summary {
	return Summary{
		Name:                   s.name,
		Path:                   s.path.String(),
		EndpointOverride:       s.endpoint.String(),
		TimestampField:         s.timestampField,
		CreatedTimestampColumn: s.createdTimestampColumn,
		Description:            s.description,
		Owner:                  s.owner,
		FileFormat:             s.format,
		FieldMapping:           s.FieldMapping(),
		Tags:                   s.Tags(),
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func cloneOrNil(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}
