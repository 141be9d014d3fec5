package edgar

import (
	"context"
	"encoding/json"
	"os"

	"github.com/hjson/hjson-go/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// XBRLSource retrieves a filing over HTTP and parses its XBRL facts.
type XBRLSource struct {
	client *Client
	log    *zap.Logger
}

// NewXBRLSource wraps an EDGAR client as a fact source.
func NewXBRLSource(client *Client, log *zap.Logger) *XBRLSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &XBRLSource{client: client, log: log}
}

// FetchFacts downloads req.URL and returns every fact in the document.
// Period filtering is left to the caller.
func (s *XBRLSource) FetchFacts(ctx context.Context, req FilingRequest) ([]Fact, error) {
	body, err := s.client.Get(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	facts, err := Parse(body)
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: parse %s", req.URL)
	}
	s.log.Debug("edgar: parsed filing", zap.String("url", req.URL), zap.Int("facts", len(facts)))
	return facts, nil
}

// =============================================================================
// FACT DUMPS
// =============================================================================

// factDump is the on-disk form written by EncodeFacts. HJSON is accepted on
// read so dumps can be edited by hand.
type factDump struct {
	URL   string `json:"url,omitempty"`
	Facts []Fact `json:"facts"`
}

// FileSource serves facts from a JSON or HJSON dump instead of the network.
type FileSource struct {
	Path string
}

// FetchFacts ignores the request URL and returns the dump's facts.
func (s FileSource) FetchFacts(_ context.Context, _ FilingRequest) ([]Fact, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: read fact dump %s", s.Path)
	}
	return DecodeFacts(data)
}

// DecodeFacts reads a fact dump. Either a {"facts": [...]} object or a bare
// array is accepted.
func DecodeFacts(data []byte) ([]Fact, error) {
	// hjson decodes into generic values; re-encoding as JSON lets the
	// Fact field tags and time parsing do the rest.
	var generic interface{}
	if err := hjson.Unmarshal(data, &generic); err != nil {
		return nil, eris.Wrap(ErrParse, err.Error())
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: re-encode fact dump")
	}

	if _, isList := generic.([]interface{}); isList {
		var facts []Fact
		if err := json.Unmarshal(canonical, &facts); err != nil {
			return nil, eris.Wrap(ErrParse, err.Error())
		}
		return facts, nil
	}
	var dump factDump
	if err := json.Unmarshal(canonical, &dump); err != nil {
		return nil, eris.Wrap(ErrParse, err.Error())
	}
	return dump.Facts, nil
}

// EncodeFacts renders facts in the dump format read by FileSource.
func EncodeFacts(url string, facts []Fact) ([]byte, error) {
	data, err := json.MarshalIndent(factDump{URL: url, Facts: facts}, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "edgar: encode facts")
	}
	return data, nil
}
