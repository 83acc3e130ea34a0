// Package export writes the spreadsheet-friendly CSV copies of a pipeline run.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"soundmap/model"
)

// 输出文件名
const (
	CountriesFile = "soundcloud_countries.csv"
	CitiesFile    = "soundcloud_cities.csv"
	TracksFile    = "soundcloud_top_tracks.csv"
)

// Data 三张表的数据；rank 按列表位置从 1 开始
type Data struct {
	Countries []model.CountryStat
	Cities    []model.CityStat
	Tracks    []model.Track
}

// FromSnapshot 从持久化快照取数据；快照只保存了逐曲目上限内的曲目
func FromSnapshot(s *model.Snapshot) Data {
	tracks := make([]model.Track, 0, len(s.Tracks))
	for _, t := range s.Tracks {
		tracks = append(tracks, t.Track)
	}
	return Data{
		Countries: s.Aggregate.Countries,
		Cities:    s.Aggregate.Cities,
		Tracks:    tracks,
	}
}

// WriteAll 写出三个 CSV 文件，返回写出的路径
func WriteAll(dir string, d Data) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	countries := [][]string{{"rank", "country", "country_code", "plays"}}
	for i, c := range d.Countries {
		countries = append(countries, []string{rank(i), c.Name, c.Code, plays(c.Plays)})
	}

	cities := [][]string{{"rank", "city", "country", "country_code", "plays"}}
	for i, c := range d.Cities {
		cities = append(cities, []string{rank(i), c.Name, c.Country, c.CountryCode, plays(c.Plays)})
	}

	tracks := [][]string{{"rank", "title", "plays", "url", "created_at"}}
	for i, t := range d.Tracks {
		tracks = append(tracks, []string{rank(i), t.Title, plays(t.Plays), t.URL, model.DateOnly(t.CreatedAt)})
	}

	var written []string
	for _, f := range []struct {
		name string
		rows [][]string
	}{
		{CountriesFile, countries},
		{CitiesFile, cities},
		{TracksFile, tracks},
	} {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, rows [][]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func rank(i int) string { return strconv.Itoa(i + 1) }

func plays(n int64) string { return strconv.FormatInt(n, 10) }
