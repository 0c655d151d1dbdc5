package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// PostFrontMatter is the validated front-matter of a blog post.
type PostFrontMatter struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	PubDate     time.Time           `json:"pubDate"`
	UpdatedDate Optional[time.Time] `json:"updatedDate"`
	HeroImage   Optional[AssetRef]  `json:"heroImage"`
	SocialImage Optional[AssetRef]  `json:"socialImage"`
	Tags        []string            `json:"tags"`
}

// Field names as they appear in front-matter.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPubDate     = "pubDate"
	FieldUpdatedDate = "updatedDate"
	FieldHeroImage   = "heroImage"
	FieldSocialImage = "socialImage"
	FieldTags        = "tags"
)

type postFrontMatterJSON struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	PubDate     string             `json:"pubDate"`
	UpdatedDate Optional[string]   `json:"updatedDate"`
	HeroImage   Optional[AssetRef] `json:"heroImage"`
	SocialImage Optional[AssetRef] `json:"socialImage"`
	Tags        []string           `json:"tags"`
}

// MarshalJSON writes dates with FormatDate so every accepted date,
// including years past 9999, can be encoded.
func (p PostFrontMatter) MarshalJSON() ([]byte, error) {
	out := postFrontMatterJSON{
		Title:       p.Title,
		Description: p.Description,
		PubDate:     FormatDate(p.PubDate),
		HeroImage:   p.HeroImage,
		SocialImage: p.SocialImage,
		Tags:        p.Tags,
	}
	if t, ok := p.UpdatedDate.Get(); ok {
		out.UpdatedDate = Some(FormatDate(t))
	}
	return json.Marshal(out)
}

func (p *PostFrontMatter) UnmarshalJSON(data []byte) error {
	var in postFrontMatterJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	pub, err := CoerceDate(String(in.PubDate))
	if err != nil {
		return fmt.Errorf("pubDate: %w", err)
	}
	*p = PostFrontMatter{
		Title:       in.Title,
		Description: in.Description,
		PubDate:     pub,
		HeroImage:   in.HeroImage,
		SocialImage: in.SocialImage,
		Tags:        in.Tags,
	}
	if s, ok := in.UpdatedDate.Get(); ok {
		t, err := CoerceDate(String(s))
		if err != nil {
			return fmt.Errorf("updatedDate: %w", err)
		}
		p.UpdatedDate = Some(t)
	}
	return nil
}
