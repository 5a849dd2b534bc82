package task

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest is the file a run is driven by. JSON manifests are read by the
// same decoder since JSON is a subset of YAML.
type Manifest struct {
	Tasks []Task `json:"tasks" yaml:"tasks"`
	Batch *Batch `json:"batch,omitempty" yaml:"batch,omitempty"`
}

// LoadManifest reads a manifest file. A file holding a bare list is read as
// the task list. Tasks without an id get a random one.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}

	return ParseManifest(data)
}

func ParseManifest(data []byte) (*Manifest, error) {
	node := yaml.Node{}
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "parse manifest")
	}

	m := &Manifest{}
	if len(node.Content) != 0 {
		var err error
		if node.Content[0].Kind == yaml.SequenceNode {
			err = node.Content[0].Decode(&m.Tasks)
		} else {
			err = node.Content[0].Decode(m)
		}
		if err != nil {
			return nil, errors.Wrap(err, "decode manifest")
		}
	}

	seen := map[string]bool{}
	for i := range m.Tasks {
		t := &m.Tasks[i]
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if seen[t.ID] {
			return nil, errors.Errorf("duplicate task id %q", t.ID)
		}
		seen[t.ID] = true

		if t.Input.Ref == "" && (t.Input.Bucket == "" || t.Input.Key == "") {
			return nil, errors.Errorf("task %s: input needs a ref or a bucket and key", t.ID)
		}

		for j, op := range t.Operations {
			if err := op.Validate(); err != nil {
				return nil, errors.Wrapf(err, "task %s: operation %d", t.ID, j)
			}
		}
	}

	return m, nil
}
