package domain

// Page identifies a portal page.
type Page string

const (
	PageHome         Page = "home"
	PageReservations Page = "reservations"
	PageEvents       Page = "events"
	PageDocuments    Page = "documents"
	PageGallery      Page = "gallery"
	PageShop         Page = "shop"
	PageFinance      Page = "finance"
	PageProfile      Page = "profile"
	PageContact      Page = "contact"
	PageVisitors     Page = "visitors"
	PageAccess       Page = "access"
)

// MenuItem is one entry of the navigation menu.
type MenuItem struct {
	Page  Page   `json:"page"`
	Label string `json:"label"`
}

// NavigationResponse is returned by GET /v1/navigation.
type NavigationResponse struct {
	Menu     []MenuItem `json:"menu"`
	LastPage Page       `json:"lastPage"`
}

// ResolveResponse is returned by GET /v1/navigation/resolve.
type ResolveResponse struct {
	Requested  Page `json:"requested"`
	Page       Page `json:"page"`
	Redirected bool `json:"redirected"`
}

// LastPageRequest is the body for PUT /v1/navigation/last-page.
type LastPageRequest struct {
	Page Page `json:"page" validate:"required"`
}

type pageDef struct {
	id         Page
	label      string
	adminLabel string
	visitor    bool
	adminOnly  bool
}

// pages is the menu in display order.
var pages = []pageDef{
	{id: PageHome, label: "Início", visitor: true},
	{id: PageReservations, label: "Reservas", visitor: true},
	{id: PageEvents, label: "Eventos"},
	{id: PageDocuments, label: "Documentos"},
	{id: PageGallery, label: "Galeria"},
	{id: PageShop, label: "Loja", visitor: true},
	{id: PageFinance, label: "Financeiro"},
	{id: PageProfile, label: "Meu perfil", adminLabel: "Cadastro de sócios"},
	{id: PageContact, label: "Fale conosco", adminLabel: "Mensagens recebidas"},
	{id: PageVisitors, label: "Cadastro de visitantes", adminOnly: true},
	{id: PageAccess, label: "Controle de acesso", adminOnly: true},
}

var pageByID = func() map[Page]pageDef {
	m := make(map[Page]pageDef, len(pages))
	for _, p := range pages {
		m[p.id] = p
	}
	return m
}()

// Menu returns the viewer's menu, filtered and relabeled by role.
func Menu(v Viewer) []MenuItem {
	items := make([]MenuItem, 0, len(pages))
	for _, p := range pages {
		if !v.CanAccess(p.id) {
			continue
		}
		label := p.label
		if v.IsAdmin && p.adminLabel != "" {
			label = p.adminLabel
		}
		items = append(items, MenuItem{Page: p.id, Label: label})
	}
	return items
}

// ResolvePage returns the page the viewer actually lands on when requesting p.
// Anything the viewer cannot open falls back to Home.
func ResolvePage(v Viewer, p Page) Page {
	if v.CanAccess(p) {
		return p
	}
	return PageHome
}
