package insights

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"soundmap/model"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type graphqlRequest struct {
	Query         string      `json:"query"`
	Variables     interface{} `json:"variables"`
	OperationName string      `json:"operationName,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Request 发送一次 GraphQL 查询，并把 data 解码到 out。
// 所有失败都以 *Failure 返回，不重试。
func (c *Client) Request(ctx context.Context, kind QueryKind, variables interface{}, out interface{}) (err error) {
	doc := kind.document()
	if doc == "" {
		return &Failure{Query: kind, Kind: FailureTransport, Message: "unknown query kind"}
	}
	if variables == nil {
		variables = struct{}{}
	}

	start := time.Now()
	defer func() {
		outcome := "ok"
		if f, ok := AsFailure(err); ok {
			outcome = string(f.Kind)
		}
		c.metrics.ObserveRemote(string(kind), outcome, time.Since(start))
	}()

	payload, err := json.Marshal(graphqlRequest{Query: doc, Variables: variables, OperationName: string(kind)})
	if err != nil {
		return &Failure{Query: kind, Kind: FailureTransport, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return &Failure{Query: kind, Kind: FailureTransport, Message: "create request", Err: err}
	}
	c.setHeaders(req)

	c.logger.Debug("[Insights] sending query", zap.String("query", string(kind)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("[Insights] request failed", zap.String("query", string(kind)), zap.Error(err))
		return &Failure{Query: kind, Kind: FailureTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readBodyForError(resp.Body)
		c.logger.Warn("[Insights] unexpected status",
			zap.String("query", string(kind)),
			zap.Int("status", resp.StatusCode),
			zap.String("body", body))
		return &Failure{Query: kind, Kind: FailureStatus, Status: resp.StatusCode, Message: body}
	}

	var gr graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return &Failure{Query: kind, Kind: FailureDecode, Status: resp.StatusCode, Message: "decode response: " + err.Error(), Err: err}
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		c.logger.Warn("[Insights] GraphQL errors", zap.String("query", string(kind)), zap.Strings("errors", msgs))
		return &Failure{Query: kind, Kind: FailureGraphQL, Status: resp.StatusCode, Message: strings.Join(msgs, "; ")}
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return &Failure{Query: kind, Kind: FailureDecode, Status: resp.StatusCode, Message: "response has no data"}
	}
	if out != nil {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return &Failure{Query: kind, Kind: FailureDecode, Status: resp.StatusCode, Message: "decode data: " + err.Error(), Err: err}
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("accept", "*/*")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("apollographql-client-name", clientName)
	req.Header.Set("apollographql-client-version", clientVersion)
	req.Header.Set("authorization", "OAuth "+c.token)
	req.Header.Set("origin", "https://insights-ui.soundcloud.com")
	req.Header.Set("referer", "https://insights-ui.soundcloud.com/")
	req.Header.Set("user-agent", userAgent)
}

// Me 获取当前登录账号
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var data struct {
		Me *model.User `json:"me"`
	}
	if err := c.Request(ctx, QueryIdentity, nil, &data); err != nil {
		return nil, err
	}
	if data.Me == nil {
		return nil, &Failure{Query: QueryIdentity, Kind: FailureDecode, Message: "me is null"}
	}
	return data.Me, nil
}

// TopTracks 按播放量获取热门曲目
func (c *Client) TopTracks(ctx context.Context, window string, limit int) ([]model.TrackCount, error) {
	var data struct {
		Items []model.TrackCount `json:"topTracksByWindow"`
	}
	vars := tracksVariables{Metric: metricPlays, WindowInput: windowInput{Timewindow: window, Limit: limit}}
	if err := c.Request(ctx, QueryTopTracks, vars, &data); err != nil {
		return nil, err
	}
	return data.Items, nil
}

// TopCountries 获取国家分布；trackURN 为空时统计整个账号
func (c *Client) TopCountries(ctx context.Context, window string, limit int, trackURN string) ([]model.CountryCount, error) {
	var data struct {
		Items []model.CountryCount `json:"topCountriesByWindow"`
	}
	if err := c.Request(ctx, QueryTopCountries, geoVars(window, limit, trackURN), &data); err != nil {
		return nil, err
	}
	return data.Items, nil
}

// TopCities 获取城市分布；trackURN 为空时统计整个账号
func (c *Client) TopCities(ctx context.Context, window string, limit int, trackURN string) ([]model.CityCount, error) {
	var data struct {
		Items []model.CityCount `json:"topCitiesByWindow"`
	}
	if err := c.Request(ctx, QueryTopCities, geoVars(window, limit, trackURN), &data); err != nil {
		return nil, err
	}
	return data.Items, nil
}

func geoVars(window string, limit int, trackURN string) geoVariables {
	v := geoVariables{Metric: metricPlays, WindowInput: windowInput{Timewindow: window, Limit: limit}}
	if trackURN != "" {
		v.TrackURN = &trackURN
	}
	return v
}

// String implements fmt.Stringer for log fields.
func (k QueryKind) String() string { return string(k) }
