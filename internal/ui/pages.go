package ui

import (
	"net/url"
	"time"

	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// projectForm is the add form's content, kept across a failed submit or a draft.
type projectForm domain.Fields

type pageData struct {
	Meta         portfolio.Meta
	Profile      portfolio.Profile
	State        service.State
	Projects     []domain.Project
	Total        int
	Tags         []string
	ActiveTag    string
	IsOwner      bool
	ManagerMode  bool
	CanManage    bool
	DraftEnabled bool
	Error        string
	Form         projectForm
}

func property(name, content string) Node {
	return Meta(Attr("property", name), Content(content))
}

func indexPage(d pageData) Node {
	return Doctype(HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(d.Meta.Title)),
			Meta(Name("description"), Content(d.Meta.Description)),
			property("og:title", d.Meta.OGTitle),
			property("og:description", d.Meta.OGDesc),
			property("og:type", d.Meta.OGType),
			property("og:image", d.Meta.OGImage),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
		),
		Body(
			navBar(d),
			Main(
				heroSection(d),
				aboutSection(d),
				projectsSection(d),
				contactSection(d),
			),
			Footer(P(Textf("© %d %s", time.Now().Year(), d.Profile.Name))),
		),
	))
}

func navBar(d pageData) Node {
	toggleLabel := "Manager mode"
	if d.ManagerMode {
		toggleLabel = "Exit manager mode"
	}
	return Nav(
		Class("nav"),
		A(Href("/#hero"), Strong(Text(d.Profile.Name))),
		A(Href("/#about"), Text("About")),
		A(Href("/#projects"), Text("Projects")),
		A(Href("/#contact"), Text("Contact")),
		Form(
			Method("post"),
			Action("/manager/toggle"),
			Class("inline"),
			Button(Type("submit"), Class("btn btn-secondary"), Text(toggleLabel)),
		),
	)
}

func heroSection(d pageData) Node {
	return Section(
		ID("hero"),
		Class("hero"),
		Img(Src(d.Profile.AvatarURL), Alt(d.Profile.Name), Class("avatar")),
		H1(Text(d.Profile.Name)),
		P(Class("tagline"), Text(d.Profile.Tagline)),
	)
}

func aboutSection(d pageData) Node {
	nodes := []Node{ID("about"), H2(Text("About")), P(Text(d.Profile.Bio))}
	if d.CanManage {
		nodes = append(nodes, profileForm(d.Profile))
	}
	return Section(nodes...)
}

func profileForm(p portfolio.Profile) Node {
	return Form(
		Method("post"),
		Action("/profile"),
		Class("stack-form manage"),
		H3(Text("Edit profile")),
		textInput("name", "Name", p.Name, true),
		textInput("tagline", "Tagline", p.Tagline, false),
		textArea("bio", "Bio", p.Bio, false),
		textInput("email", "Email", p.Email, false),
		textInput("avatar_url", "Avatar URL", p.AvatarURL, false),
		textArea("socials", "Social links (one \"Label | URL\" per line)", formatSocials(p.Socials), false),
		Div(
			Class("form-actions"),
			Button(Type("submit"), Class("btn btn-primary"), Text("Save profile")),
			Button(Type("submit"), Name("reset"), Value("1"), Class("btn btn-secondary"), Text("Reset to default")),
		),
	)
}

func tagHref(active, tag string) string {
	next := portfolio.ToggleTag(active, tag)
	if next == "" {
		return "/#projects"
	}
	return "/?tag=" + url.QueryEscape(next) + "#projects"
}

func tagBar(d pageData) Node {
	links := make([]Node, 0, len(d.Tags))
	for _, tag := range d.Tags {
		cls := "tag"
		if tag == d.ActiveTag {
			cls += " active"
		}
		links = append(links, A(Href(tagHref(d.ActiveTag, tag)), Class(cls), Text(tag)))
	}
	return Div(Class("tags"), Group(links))
}

func projectsSection(d pageData) Node {
	nodes := []Node{ID("projects"), H2(Text("Projects"))}
	if d.Error != "" {
		nodes = append(nodes, P(Class("error"), Attr("role", "alert"), Text(d.Error)))
	}
	if d.CanManage {
		nodes = append(nodes, addForm(d))
	}
	if len(d.Tags) > 0 {
		nodes = append(nodes, tagBar(d))
	}

	switch {
	case d.State == service.StateError && d.Total == 0:
	case d.Total == 0:
		nodes = append(nodes, P(Class("muted"), Text("No projects yet.")))
	case len(d.Projects) == 0:
		nodes = append(nodes, P(Class("muted"), Textf("No projects use %s.", d.ActiveTag)))
	default:
		cards := make([]Node, 0, len(d.Projects))
		for _, p := range d.Projects {
			cards = append(cards, projectCard(p, d))
		}
		nodes = append(nodes, Div(Class("project-grid"), Group(cards)))
	}
	return Section(nodes...)
}

func projectCard(p domain.Project, d pageData) Node {
	techs := portfolio.SplitTechnologies(p.Technologies)
	chips := make([]Node, 0, len(techs))
	for _, t := range techs {
		chips = append(chips, Span(Class("chip"), Text(t)))
	}

	links := []Node{}
	if p.GithubURL != "" {
		links = append(links, A(Href(p.GithubURL), Attr("target", "_blank"), Attr("rel", "noopener"), Text("Source")))
	}
	if p.LiveDemoURL != "" {
		links = append(links, A(Href(p.LiveDemoURL), Attr("target", "_blank"), Attr("rel", "noopener"), Text("Live demo")))
	}

	nodes := []Node{
		Class("card project"),
		H3(Text(p.Title)),
		P(Text(p.Description)),
		Div(Class("chips"), Group(chips)),
		Div(Class("links"), Group(links)),
	}
	if d.CanManage {
		nodes = append(nodes, editForm(p, d.ActiveTag), deleteForm(p, d.ActiveTag))
	}
	return Article(nodes...)
}

func addForm(d pageData) Node {
	f := d.Form
	actions := []Node{Button(Type("submit"), Class("btn btn-primary"), Text("Add project"))}
	if d.DraftEnabled {
		actions = append(actions, Button(
			Type("submit"),
			Attr("formaction", "/projects/draft"),
			Attr("formnovalidate", ""),
			Class("btn btn-secondary"),
			Text("Draft with AI"),
		))
	}
	return Form(
		Method("post"),
		Action("/projects"),
		Class("stack-form manage"),
		H3(Text("Add project")),
		Input(Type("hidden"), Name("tag"), Value(d.ActiveTag)),
		textInput("title", "Title", f.Title, true),
		textInput("technologies", "Technologies (comma separated)", f.Technologies, true),
		textArea("description", "Description", f.Description, true),
		textInput("github_url", "GitHub URL", f.GithubURL, false),
		textInput("live_demo_url", "Live demo URL", f.LiveDemoURL, false),
		Div(Class("form-actions"), Group(actions)),
	)
}

func editForm(p domain.Project, tag string) Node {
	return Details(
		Summary(Text("Edit")),
		Form(
			Method("post"),
			Action("/projects/"+url.PathEscape(p.ID)+"/update"),
			Class("stack-form"),
			Input(Type("hidden"), Name("tag"), Value(tag)),
			textInput("title", "Title", p.Title, true),
			textInput("technologies", "Technologies", p.Technologies, true),
			textArea("description", "Description", p.Description, true),
			textInput("github_url", "GitHub URL", p.GithubURL, false),
			textInput("live_demo_url", "Live demo URL", p.LiveDemoURL, false),
			Button(Type("submit"), Class("btn btn-primary"), Text("Save")),
		),
	)
}

func deleteForm(p domain.Project, tag string) Node {
	return Form(
		Method("post"),
		Action("/projects/"+url.PathEscape(p.ID)+"/delete"),
		Class("inline"),
		Input(Type("hidden"), Name("tag"), Value(tag)),
		Button(Type("submit"), Class("btn btn-danger"), Text("Delete")),
	)
}

func contactSection(d pageData) Node {
	socials := make([]Node, 0, len(d.Profile.Socials))
	for _, s := range d.Profile.Socials {
		socials = append(socials, Li(A(Href(s.URL), Attr("target", "_blank"), Attr("rel", "noopener"), Text(s.Label))))
	}
	return Section(
		ID("contact"),
		H2(Text("Contact")),
		P(A(Href("mailto:"+d.Profile.Email), Text(d.Profile.Email))),
		Ul(Class("socials"), Group(socials)),
	)
}

func textInput(name, label, value string, required bool) Node {
	attrs := []Node{Type("text"), Name(name), Value(value)}
	if required {
		attrs = append(attrs, Required())
	}
	return Label(Class("field"), Span(Text(label)), Input(attrs...))
}

func textArea(name, label, value string, required bool) Node {
	attrs := []Node{Name(name), Attr("rows", "4")}
	if required {
		attrs = append(attrs, Required())
	}
	attrs = append(attrs, Text(value))
	return Label(Class("field"), Span(Text(label)), Textarea(attrs...))
}
