package siteconfig

// Key names one editable section of site content.
type Key string

const (
	KeyHero         Key = "hero_section"
	KeyAbout        Key = "about_section"
	KeyServices     Key = "services_section"
	KeyContact      Key = "contact_section"
	KeyFAQ          Key = "faq_section"
	KeyTestimonials Key = "testimonials_section"
	KeySEO          Key = "seo_settings"
	KeyMaintenance  Key = "maintenance_mode"
	KeyAvatar       Key = "avatar"
	KeyAnnouncement Key = "announcement"
)

// Section is the typed value stored under one Key.
type Section interface {
	Key() Key
}

type Hero struct {
	Title              string `json:"title" validate:"required,max=160"`
	Subtitle           string `json:"subtitle" validate:"max=320"`
	CTALabel           string `json:"ctaLabel"`
	CTAHref            string `json:"ctaHref"`
	BackgroundImageURL string `json:"backgroundImageUrl" validate:"omitempty,url"`
}

func (Hero) Key() Key { return KeyHero }

type About struct {
	Heading     string   `json:"heading" validate:"required"`
	Body        string   `json:"body"`
	PortraitURL string   `json:"portraitUrl" validate:"omitempty,url"`
	Credentials []string `json:"credentials"`
}

func (About) Key() Key { return KeyAbout }

// ServiceItem is one offering listed in the services section.
type ServiceItem struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Price       string `json:"price"`
}

type Services struct {
	Heading string        `json:"heading" validate:"required"`
	Intro   string        `json:"intro"`
	Items   []ServiceItem `json:"items" validate:"dive"`
}

func (Services) Key() Key { return KeyServices }

type Contact struct {
	Heading     string `json:"heading" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	OfficeHours string `json:"officeHours"`
	ShowForm    bool   `json:"showForm"`
}

func (Contact) Key() Key { return KeyContact }

type FAQ struct {
	Heading string `json:"heading" validate:"required"`
	Intro   string `json:"intro"`
}

func (FAQ) Key() Key { return KeyFAQ }

type Testimonials struct {
	Heading string `json:"heading" validate:"required"`
	Intro   string `json:"intro"`
	Enabled bool   `json:"enabled"`
}

func (Testimonials) Key() Key { return KeyTestimonials }

type SEO struct {
	SiteTitle   string   `json:"siteTitle" validate:"required,max=70"`
	Description string   `json:"description" validate:"max=320"`
	Keywords    []string `json:"keywords"`
	OGImageURL  string   `json:"ogImageUrl" validate:"omitempty,url"`
}

func (SEO) Key() Key { return KeySEO }

// Maintenance switches the public site into maintenance mode.
type Maintenance struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message" validate:"max=500"`
}

func (Maintenance) Key() Key { return KeyMaintenance }

type Avatar struct {
	URL     string `json:"url" validate:"required,url"`
	AltText string `json:"altText"`
}

func (Avatar) Key() Key { return KeyAvatar }

type Announcement struct {
	Text    string `json:"text" validate:"required,max=280"`
	LinkURL string `json:"linkUrl" validate:"omitempty,url"`
	Enabled bool   `json:"enabled"`
}

func (Announcement) Key() Key { return KeyAnnouncement }
