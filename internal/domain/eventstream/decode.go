package eventstream

import (
	"encoding/json"
	"errors"
	"fmt"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/domain/translator"
)

type wireEvent struct {
	ID           string            `json:"id"`
	CreationTime string            `json:"creationtime"`
	Type         string            `json:"type"`
	Data         []json.RawMessage `json:"data"`
}

// Decoder turns frames into change records.
type Decoder struct {
	translators *translator.Factory
}

func NewDecoder(translators *translator.Factory) *Decoder {
	if translators == nil {
		translators = translator.NewFactory()
	}
	return &Decoder{translators: translators}
}

// Decoded is the content of one frame.
type Decoded struct {
	Events  []model.StreamEvent
	Changes []model.ChangeRecord
	// Errors holds one DecodeError per event or item that was skipped.
	Errors []error
}

// Decode never fails as a whole: malformed parts are skipped and reported in
// Errors, and the well-formed remainder is returned in wire order.
func (d *Decoder) Decode(f Frame) Decoded {
	var out Decoded
	var events []wireEvent
	if err := json.Unmarshal([]byte(f.Data), &events); err != nil {
		out.Errors = append(out.Errors, &model.DecodeError{Frame: f.Data, Err: err})
		return out
	}

	for _, ev := range events {
		op, err := model.ParseChangeOp(ev.Type)
		if err != nil {
			out.Errors = append(out.Errors, &model.DecodeError{Frame: f.Data, Err: err})
			continue
		}
		stream := model.StreamEvent{ID: ev.ID, CreationTime: ev.CreationTime, Type: ev.Type}
		for _, raw := range ev.Data {
			change, err := d.decodeItem(op, raw)
			if err != nil {
				out.Errors = append(out.Errors, &model.DecodeError{Frame: string(raw), Err: err})
				continue
			}
			stream.Data = append(stream.Data, change.Attributes)
			out.Changes = append(out.Changes, change)
		}
		out.Events = append(out.Events, stream)
	}
	return out
}

func (d *Decoder) decodeItem(op model.ChangeOp, raw json.RawMessage) (model.ChangeRecord, error) {
	var attrs model.Attributes
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return model.ChangeRecord{}, err
	}
	id, _ := attrs.Str("id")
	kind, _ := attrs.Str("type")
	if id == "" || kind == "" {
		return model.ChangeRecord{}, errors.New("resource without id or type")
	}
	identity := model.ResourceIdentity{Kind: model.ResourceKind(kind), ID: id}
	if op != model.OpDelete {
		if err := d.translators.Validate(op, identity, attrs); err != nil {
			return model.ChangeRecord{}, fmt.Errorf("%s: %w", identity, err)
		}
	}
	return model.ChangeRecord{Op: op, Identity: identity, Attributes: attrs}, nil
}

// DecodeResources parses a CLIP v2 "data" array of full resources, as
// returned by the resource endpoints.
func (d *Decoder) DecodeResources(raw []json.RawMessage) ([]model.ResourceRecord, []error) {
	records := make([]model.ResourceRecord, 0, len(raw))
	var errs []error
	for _, item := range raw {
		change, err := d.decodeItem(model.OpAdd, item)
		if err != nil {
			errs = append(errs, &model.DecodeError{Frame: string(item), Err: err})
			continue
		}
		records = append(records, model.ResourceRecord{Identity: change.Identity, Attributes: change.Attributes})
	}
	return records, errs
}
