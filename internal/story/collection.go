package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type collectionDoc struct {
	StoryCollection []struct {
		Story storyDoc `json:"story" yaml:"story"`
	} `json:"storyCollection" yaml:"storyCollection"`
}

type storyDoc struct {
	Title   string    `json:"title" yaml:"title"`
	RefBook string    `json:"ref_book" yaml:"ref_book"`
	Pages   []pageDoc `json:"pages" yaml:"pages"`
}

type pageDoc struct {
	Page        int    `json:"page" yaml:"page"`
	RefStart    string `json:"ref_start" yaml:"ref_start"`
	RefEnd      string `json:"ref_end" yaml:"ref_end"`
	ImgSrc      string `json:"img_src" yaml:"img_src"`
	InitialRect string `json:"img_initialrect" yaml:"img_initialrect"`
	FinalRect   string `json:"img_finalrect" yaml:"img_finalrect"`
}

// LoadCollection reads a story collection file. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func LoadCollection(path string) ([]Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story collection: %w", err)
	}
	var doc collectionDoc
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse story collection %s: %w", path, err)
	}
	return doc.stories(), nil
}

func (d collectionDoc) stories() []Story {
	stories := make([]Story, 0, len(d.StoryCollection))
	for _, entry := range d.StoryCollection {
		doc := entry.Story
		s := Story{
			Title:   strings.TrimSpace(doc.Title),
			RefBook: strings.TrimSpace(doc.RefBook),
			Pages:   make([]Page, 0, len(doc.Pages)),
		}
		for ordinal, pd := range doc.Pages {
			s.Pages = append(s.Pages, pd.page(ordinal+1))
		}
		stories = append(stories, s)
	}
	return stories
}

// page converts one page entry. Rect parse errors are kept for Story.Validate.
func (pd pageDoc) page(ordinal int) Page {
	number := pd.Page
	if number == 0 {
		number = ordinal
	}
	page := Page{
		Number:   number,
		RefStart: strings.TrimSpace(pd.RefStart),
		RefEnd:   strings.TrimSpace(pd.RefEnd),
		Image:    strings.ReplaceAll(strings.TrimSpace(pd.ImgSrc), "%20", " "),
	}
	var errs []error
	var err error
	if page.InitialRect, err = ParseRect(pd.InitialRect); err != nil {
		errs = append(errs, fmt.Errorf("img_initialrect: %w", err))
	}
	if page.FinalRect, err = ParseRect(pd.FinalRect); err != nil {
		errs = append(errs, fmt.Errorf("img_finalrect: %w", err))
	}
	page.rectErr = errors.Join(errs...)
	return page
}

// Find returns the story whose title or file stem matches name.
func Find(stories []Story, name string) (*Story, bool) {
	name = strings.TrimSpace(name)
	for i := range stories {
		if strings.EqualFold(stories[i].Title, name) || stories[i].FileStem() == name {
			return &stories[i], true
		}
	}
	return nil, false
}
