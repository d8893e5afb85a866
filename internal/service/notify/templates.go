package notify

// Template selects the customer-facing copy for a convoy notification.
type Template string

const (
	TemplateEnRoute        Template = "EN_ROUTE"
	TemplateInCustoms      Template = "IN_CUSTOMS"
	TemplateOutForDelivery Template = "OUT_FOR_DELIVERY"
	TemplateDelivered      Template = "DELIVERED"

	// templateEventUpdate backs the detached single-shipment transition
	// email and templateThankYou the one-shot post-delivery email. Neither
	// is addressable through the convoy notification API.
	templateEventUpdate Template = "EVENT_UPDATE"
	templateThankYou    Template = "THANK_YOU"
)

// ParseTemplate validates a template label from the API.
func ParseTemplate(label string) (Template, bool) {
	switch t := Template(label); t {
	case TemplateEnRoute, TemplateInCustoms, TemplateOutForDelivery, TemplateDelivered:
		return t, true
	}
	return "", false
}

// Liquid sources per template. Subjects and bodies share one variable
// context; see Composer.Compose for the variables bound.

const subjectEnRoute = `Vos colis sont en route {{ route_label }}`

const textEnRoute = `Bonjour {{ receiver_name | default: "cher client" }},

Bonne nouvelle ! Le convoi du {{ convoy_date }} est parti et vos colis sont en route {{ route_label }}.

Colis concernés :
{% for code in tracking_codes %}  - {{ code }}
{% endfor %}
{% if custom_message != "" %}{{ custom_message }}

{% endif %}{{ delay_note }}

Vous pouvez suivre chaque colis sur notre page de suivi avec son numéro.

L'équipe Trans-Sahel Colis`

const subjectInCustoms = `Vos colis sont en dédouanement`

const textInCustoms = `Bonjour {{ receiver_name | default: "cher client" }},

Les colis du convoi du {{ convoy_date }} sont arrivés et passent actuellement le dédouanement.

Colis concernés :
{% for code in tracking_codes %}  - {{ code }}
{% endfor %}
{% if custom_message != "" %}{{ custom_message }}

{% endif %}Nous vous prévenons dès qu'ils sont prêts pour le retrait.

L'équipe Trans-Sahel Colis`

const subjectOutForDelivery = `Vos colis sont prêts pour le retrait`

const textOutForDelivery = `Bonjour {{ receiver_name | default: "cher client" }},

Vos colis du convoi du {{ convoy_date }} sont prêts !

Colis concernés :
{% for code in tracking_codes %}  - {{ code }}
{% endfor %}
{% if has_pickup %}Point de retrait ({{ pickup_city }}) :
{{ pickup_address }}
Horaires : {{ pickup_hours }}
{% else %}Contactez-nous pour convenir du retrait de vos colis.
{% endif %}{% if custom_message != "" %}
{{ custom_message }}
{% endif %}
Merci de vous munir d'une pièce d'identité.

L'équipe Trans-Sahel Colis`

const subjectDelivered = `Merci ! Vos colis ont été livrés`

const textDelivered = `Bonjour {{ receiver_name | default: "cher client" }},

Vos colis du convoi du {{ convoy_date }} ont bien été livrés :
{% for code in tracking_codes %}  - {{ code }}
{% endfor %}
{% if custom_message != "" %}{{ custom_message }}

{% endif %}Merci de votre confiance, et à bientôt.

L'équipe Trans-Sahel Colis`

const subjectThankYou = `Merci de votre confiance !`

const textThankYou = `Bonjour {{ receiver_name | default: "cher client" }},

Votre colis {{ tracking_codes | first }} vous a été remis.

Toute l'équipe vous remercie de votre confiance. Nous espérons vous revoir bientôt pour vos prochains envois entre le Canada, le Niger et la Guinée.

L'équipe Trans-Sahel Colis`

const subjectEventUpdate = `Mise à jour de votre colis {{ tracking_codes | first }}`

const textEventUpdate = `Bonjour {{ receiver_name | default: "cher client" }},

Votre colis {{ tracking_codes | first }} a une nouvelle mise à jour :

  {{ event_description }}{% if event_location != "" %} — {{ event_location }}{% endif %}

Vous pouvez suivre votre colis sur notre page de suivi.

L'équipe Trans-Sahel Colis`

type templateSource struct {
	subject string
	text    string
}

var templateSources = map[Template]templateSource{
	TemplateEnRoute:        {subjectEnRoute, textEnRoute},
	TemplateInCustoms:      {subjectInCustoms, textInCustoms},
	TemplateOutForDelivery: {subjectOutForDelivery, textOutForDelivery},
	TemplateDelivered:      {subjectDelivered, textDelivered},
	templateEventUpdate:    {subjectEventUpdate, textEventUpdate},
	templateThankYou:       {subjectThankYou, textThankYou},
}
