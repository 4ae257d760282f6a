package notify

import (
	"fmt"
	"food-storefront/internal/model"
	"strings"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━"

func itemLines(order *model.Order) string {
	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		name := fmt.Sprintf("produto %d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		lines = append(lines, fmt.Sprintf("  • %s (x%d)", name, item.Quantity))
	}
	return strings.Join(lines, "\n")
}

func paymentMethodEmoji(m model.PaymentMethod) string {
	if m == model.PaymentMethodCash {
		return "💰"
	}
	return "💳"
}

func paymentStatusLine(s model.PaymentStatus) string {
	switch s {
	case model.PaymentStatusPaid:
		return "✅ Status: Pago"
	case model.PaymentStatusCancelled:
		return "❌ Status: Cancelado"
	}
	return "⏳ Status: Pendente"
}

func paymentInfo(order *model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n%s", paymentMethodEmoji(order.PaymentMethod), order.PaymentMethod.Label(), paymentStatusLine(order.PaymentStatus))

	if order.PaymentMethod == model.PaymentMethodCash && order.CashValue.Valid {
		fmt.Fprintf(&b, "\nValor recebido: R$ %s", order.CashValue.Decimal.StringFixed(2))
		fmt.Fprintf(&b, "\nTroco: R$ %s", order.ChangeAmount().StringFixed(2))
	}
	return b.String()
}

func newOrderMessage(order *model.Order) string {
	var warning string
	if order.PaymentIntegrationFailed {
		warning = "\n\n⚠️ *ATENÇÃO:* Falha na integração - Pagamento manual necessário!"
	}

	return fmt.Sprintf(
		"🚨 *NOVO PEDIDO RECEBIDO!*\n\n"+
			"*Pedido:* #%d\n"+
			"*Cliente:* %s\n"+
			"*Telefone:* %s\n"+
			"*Endereço:* %s\n\n"+
			"*Itens do pedido:*\n%s\n\n"+
			"*Total:* R$ %s\n\n"+
			"*Pagamento:*\n%s%s\n\n%s",
		order.ID, order.CustomerName, order.Phone, order.Address,
		itemLines(order), order.TotalPrice().StringFixed(2),
		paymentInfo(order), warning, separator,
	)
}

func paymentUpdateMessage(order *model.Order) string {
	var header, footer string
	switch order.PaymentStatus {
	case model.PaymentStatusPaid:
		header = "💰 *PAGAMENTO APROVADO!*"
		footer = "🎉 *O pedido está pronto para ser processado!*\n"
	case model.PaymentStatusCancelled:
		header = "❌ *PAGAMENTO CANCELADO*"
		footer = "⚠️ *Ação necessária:*\n" +
			"• Verificar motivo do cancelamento\n" +
			"• Não processar o pedido\n" +
			"• Entrar em contato se necessário\n\n"
	default:
		header = "⏳ *ATUALIZAÇÃO DE PAGAMENTO*"
	}

	return fmt.Sprintf(
		"%s\n\n"+
			"*Pedido:* #%d\n"+
			"*Cliente:* %s\n"+
			"*Telefone:* %s\n"+
			"*Total:* R$ %s\n\n"+
			"*Pagamento:*\n%s %s\n%s\n\n%s%s",
		header, order.ID, order.CustomerName, order.Phone, order.TotalPrice().StringFixed(2),
		paymentMethodEmoji(order.PaymentMethod), order.PaymentMethod.Label(),
		paymentStatusLine(order.PaymentStatus), footer, separator,
	)
}

func clientCancelMessage(order *model.Order) string {
	return fmt.Sprintf(
		"🚫 *PEDIDO CANCELADO PELO CLIENTE*\n\n"+
			"*Pedido:* #%d\n"+
			"*Cliente:* %s\n"+
			"*Telefone:* %s\n"+
			"*Total:* R$ %s\n\n"+
			"*Itens do pedido:*\n%s\n\n"+
			"⚠️ *O cliente cancelou este pedido.*\n"+
			"Não é necessário processar esta entrega.\n\n%s",
		order.ID, order.CustomerName, order.Phone, order.TotalPrice().StringFixed(2),
		itemLines(order), separator,
	)
}

func itemsChangedMessage(order *model.Order) string {
	return fmt.Sprintf(
		"✏️ *PEDIDO ALTERADO*\n\n"+
			"*Pedido:* #%d\n"+
			"*Cliente:* %s\n\n"+
			"*Itens do pedido:*\n%s\n\n"+
			"*Total:* R$ %s\n\n%s",
		order.ID, order.CustomerName, itemLines(order), order.TotalPrice().StringFixed(2), separator,
	)
}
