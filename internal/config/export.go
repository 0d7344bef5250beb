package config

// ExportConfig drives the scheduled snapshot exporter.
type ExportConfig struct {
	Schedule string   // cron expression
	Dir      string   // output directory
	Formats  []string // csv, xlsx and/or json
}

// LoadExportConfig reads EXPORT_* variables over the [export] section
// of the config file.
func LoadExportConfig(f File) ExportConfig {
	formats := f.Export.Formats
	if len(formats) == 0 {
		formats = []string{"csv", "xlsx"}
	}
	return ExportConfig{
		Schedule: envStr("EXPORT_SCHEDULE", or(f.Export.Schedule, "0 2 * * *")),
		Dir:      envStr("EXPORT_DIR", or(f.Export.Dir, "exports")),
		Formats:  envList("EXPORT_FORMATS", formats),
	}
}
