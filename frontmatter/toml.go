package frontmatter

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/eringen/pubcontent/schema"
)

func decodeTOML(meta []byte) (schema.Record, error) {
	var m map[string]any
	if err := toml.Unmarshal(meta, &m); err != nil {
		return nil, err
	}
	return schema.RecordFromMap(m)
}
