package i18n

var dictionary = map[Key]map[string]string{
	Welcome: {
		EN: "👋 <b>Welcome!</b>",
		RU: "👋 <b>Добро пожаловать!</b>",
		ZH: "👋 <b>欢迎！</b>",
	},
	ChooseLanguage: {
		EN: "🌐 Choose your language / Выберите язык / 选择语言",
		RU: "🌐 Choose your language / Выберите язык / 选择语言",
		ZH: "🌐 Choose your language / Выберите язык / 选择语言",
	},
	Home: {
		EN: "🏠 <b>Main menu</b>\n\n💰 Balance: <b>${balance}</b>\n⭐ Subscription: {subscription}",
		RU: "🏠 <b>Главное меню</b>\n\n💰 Баланс: <b>${balance}</b>\n⭐ Подписка: {subscription}",
		ZH: "🏠 <b>主菜单</b>\n\n💰 余额：<b>${balance}</b>\n⭐ 订阅：{subscription}",
	},

	SecretKeyTitle: {
		EN: "🔑 Your secret key:\n\n<code>{key}</code>\n\nKeep it safe. It restores your account on any Telegram profile.",
		RU: "🔑 Ваш секретный ключ:\n\n<code>{key}</code>\n\nСохраните его. По нему можно восстановить аккаунт в любом профиле Telegram.",
		ZH: "🔑 您的密钥：\n\n<code>{key}</code>\n\n请妥善保管，可用于在任意 Telegram 账号恢复账户。",
	},
	SecretKeySaved: {
		EN: "✅ Great, keep it secure.",
		RU: "✅ Отлично, берегите его.",
		ZH: "✅ 很好，请妥善保管。",
	},
	SecretKeyPrompt: {
		EN: "🔑 Send your secret key to restore your account.",
		RU: "🔑 Отправьте секретный ключ, чтобы восстановить аккаунт.",
		ZH: "🔑 发送您的密钥以恢复账户。",
	},
	SecretKeyInvalid: {
		EN: "❌ Unknown key. Check it and try again.",
		RU: "❌ Ключ не найден. Проверьте и попробуйте снова.",
		ZH: "❌ 密钥无效，请检查后重试。",
	},
	RestoreSuccess: {
		EN: "✅ Account restored.",
		RU: "✅ Аккаунт восстановлен.",
		ZH: "✅ 账户已恢复。",
	},

	BtnSaveKey:          {EN: "✅ I saved it", RU: "✅ Я сохранил", ZH: "✅ 已保存"},
	BtnLoadKey:          {EN: "🔑 Load key", RU: "🔑 Ввести ключ", ZH: "🔑 输入密钥"},
	BtnHide:             {EN: "🙈 Hide", RU: "🙈 Скрыть", ZH: "🙈 隐藏"},
	BtnCheck:            {EN: "🔍 Check", RU: "🔍 Проверить", ZH: "🔍 验证"},
	BtnDeposit:          {EN: "💳 Deposit", RU: "💳 Пополнить", ZH: "💳 充值"},
	BtnBuySubscription:  {EN: "⭐ Buy subscription", RU: "⭐ Купить подписку", ZH: "⭐ 购买订阅"},
	BtnRestore:          {EN: "🔑 Restore account", RU: "🔑 Восстановить аккаунт", ZH: "🔑 恢复账户"},
	BtnBack:             {EN: "◀️ Back", RU: "◀️ Назад", ZH: "◀️ 返回"},
	BtnSendText:         {EN: "📝 Send text", RU: "📝 Текстом", ZH: "📝 发送文本"},
	BtnUploadTxt:        {EN: "📄 Upload txt", RU: "📄 Файл txt", ZH: "📄 上传txt"},
	BtnUploadScreenshot: {EN: "🖼 Screenshot", RU: "🖼 Скриншот", ZH: "🖼 截图"},
	BtnMore:             {EN: "More ▶️", RU: "Ещё ▶️", ZH: "更多 ▶️"},
	BtnPaid:             {EN: "✅ I paid", RU: "✅ Я оплатил", ZH: "✅ 已付款"},
	BtnPayLink:          {EN: "🔗 Open payment page", RU: "🔗 Страница оплаты", ZH: "🔗 打开支付页面"},
	BtnChangeCurrency:   {EN: "🔄 Change currency", RU: "🔄 Другая валюта", ZH: "🔄 更改币种"},
	BtnCancel:           {EN: "❌ Cancel", RU: "❌ Отмена", ZH: "❌ 取消"},
	BtnDaily:            {EN: "Day · ${price}", RU: "День · ${price}", ZH: "日订阅 · ${price}"},
	BtnWeekly:           {EN: "Week · ${price}", RU: "Неделя · ${price}", ZH: "周订阅 · ${price}"},
	BtnMonthly:          {EN: "Month · ${price}", RU: "Месяц · ${price}", ZH: "月订阅 · ${price}"},
	BtnExport:           {EN: "📥 Export TXT", RU: "📥 Экспорт TXT", ZH: "📥 导出TXT"},
	BtnNewCheck:         {EN: "🔁 New check", RU: "🔁 Новая проверка", ZH: "🔁 新的验证"},

	DepositPromptAmount: {
		EN: "💳 Reply with the amount to deposit in USD ({min}–{max}).",
		RU: "💳 Введите сумму пополнения в USD ({min}–{max}).",
		ZH: "💳 请输入充值金额（美元，{min}–{max}）。",
	},
	InvalidAmount: {
		EN: "❌ That is not a number.",
		RU: "❌ Это не число.",
		ZH: "❌ 金额无效。",
	},
	AmountRange: {
		EN: "❌ Enter an amount between {min} and {max} USD.",
		RU: "❌ Введите сумму от {min} до {max} USD.",
		ZH: "❌ 请输入 {min}–{max} 美元之间的金额。",
	},
	ChooseCurrency: {
		EN: "💱 Choose a currency for <b>${amount}</b>.",
		RU: "💱 Выберите валюту для <b>${amount}</b>.",
		ZH: "💱 为 <b>${amount}</b> 选择币种。",
	},
	InvoiceDetails: {
		EN: "🧾 <b>Invoice</b>\n\nAmount: <b>${amount}</b>\nCurrency: <b>{currency}</b>\nAddress:\n<code>{address}</code>\n\n⏳ Time left: <b>{minutes} min</b>",
		RU: "🧾 <b>Счёт</b>\n\nСумма: <b>${amount}</b>\nВалюта: <b>{currency}</b>\nАдрес:\n<code>{address}</code>\n\n⏳ Осталось: <b>{minutes} мин</b>",
		ZH: "🧾 <b>账单</b>\n\n金额：<b>${amount}</b>\n币种：<b>{currency}</b>\n地址：\n<code>{address}</code>\n\n⏳ 剩余时间：<b>{minutes} 分钟</b>",
	},
	InvoiceExpired: {
		EN: "⌛ The invoice has expired. Create a new one.",
		RU: "⌛ Счёт истёк. Создайте новый.",
		ZH: "⌛ 账单已过期，请重新生成。",
	},
	DepositConfirmed: {
		EN: "✅ Deposit of <b>${amount}</b> confirmed. Balance updated.",
		RU: "✅ Пополнение на <b>${amount}</b> подтверждено. Баланс обновлён.",
		ZH: "✅ <b>${amount}</b> 充值已确认，余额已更新。",
	},
	DepositCancelled: {
		EN: "Deposit cancelled.",
		RU: "Пополнение отменено.",
		ZH: "充值已取消。",
	},
	PaymentPending: {
		EN: "⏳ Payment not received yet. We will notify you once it is confirmed.",
		RU: "⏳ Платёж ещё не получен. Сообщим, как только он подтвердится.",
		ZH: "⏳ 尚未收到付款，确认后将通知您。",
	},
	PaymentUnknown: {
		EN: "⚠️ Could not reach the payment provider. We keep checking automatically.",
		RU: "⚠️ Платёжный сервис недоступен. Продолжаем проверять автоматически.",
		ZH: "⚠️ 暂时无法连接支付服务，我们会继续自动检查。",
	},
	NoActiveInvoice: {
		EN: "There is no active invoice.",
		RU: "Нет активного счёта.",
		ZH: "没有进行中的账单。",
	},

	SubscriptionPrompt: {
		EN: "⭐ Choose a plan. It is paid from your balance.",
		RU: "⭐ Выберите тариф. Оплата списывается с баланса.",
		ZH: "⭐ 请选择套餐，将从余额扣款。",
	},
	InsufficientBalance: {
		EN: "❌ Insufficient balance. Top up first.",
		RU: "❌ Недостаточно средств. Сначала пополните баланс.",
		ZH: "❌ 余额不足，请先充值。",
	},
	SubscriptionActivated: {
		EN: "⭐ Subscription active until <b>{date}</b>.",
		RU: "⭐ Подписка активна до <b>{date}</b>.",
		ZH: "⭐ 订阅有效期至 <b>{date}</b>。",
	},
	SubscriptionRequired: {
		EN: "🔒 An active subscription is required.",
		RU: "🔒 Нужна активная подписка.",
		ZH: "🔒 需要有效订阅。",
	},

	CheckPrompt: {
		EN: "🔍 How do you want to send the numbers?",
		RU: "🔍 Как отправить номера?",
		ZH: "🔍 您想如何发送号码？",
	},
	EnterText: {
		EN: "📝 Send the numbers in a text message.",
		RU: "📝 Отправьте номера текстом.",
		ZH: "📝 请以文本发送号码。",
	},
	UploadTxt: {
		EN: "📄 Upload a .txt file with the numbers.",
		RU: "📄 Загрузите .txt файл с номерами.",
		ZH: "📄 请上传包含号码的 .txt 文件。",
	},
	UploadScreenshot: {
		EN: "🖼 Upload a screenshot with the numbers.",
		RU: "🖼 Загрузите скриншот с номерами.",
		ZH: "🖼 请上传包含号码的截图。",
	},
	MaxNumbers: {
		EN: "❌ At most {max} numbers per check.",
		RU: "❌ Не более {max} номеров за проверку.",
		ZH: "❌ 每次最多 {max} 个号码。",
	},
	CheckSummary: {
		EN: "✅ Done. CLEAN: {clean} | LOCKED: {locked} | BLOCKED: {blocked} | ERROR: {error}",
		RU: "✅ Готово. ЧИСТЫЕ: {clean} | ЗАБЛОКИРОВАНЫ: {locked} | ЗАПРЕЩЕНЫ: {blocked} | ОШИБКИ: {error}",
		ZH: "✅ 完成。正常: {clean} | 锁定: {locked} | 封禁: {blocked} | 错误: {error}",
	},
	InvalidInput: {
		EN: "❌ No numbers found in that input.",
		RU: "❌ Номера не найдены.",
		ZH: "❌ 未找到号码。",
	},
	RateLimit: {
		EN: "⏱ Please wait a few seconds before the next check.",
		RU: "⏱ Подождите несколько секунд перед следующей проверкой.",
		ZH: "⏱ 请稍候再进行下一次验证。",
	},
	RecognitionUnavailable: {
		EN: "🖼 Screenshot recognition is not available right now. Send the numbers as text.",
		RU: "🖼 Распознавание скриншотов сейчас недоступно. Отправьте номера текстом.",
		ZH: "🖼 暂不支持截图识别，请以文本发送号码。",
	},
	ExportReady: {
		EN: "📥 Export file is ready.",
		RU: "📥 Файл готов.",
		ZH: "📥 导出文件已准备。",
	},
	NothingToExport: {
		EN: "Nothing to export yet.",
		RU: "Пока нечего экспортировать.",
		ZH: "暂无可导出的结果。",
	},

	UnexpectedInput: {
		EN: "🤔 Use the menu buttons.",
		RU: "🤔 Воспользуйтесь кнопками меню.",
		ZH: "🤔 请使用菜单按钮。",
	},
	GenericError: {
		EN: "⚠️ Something went wrong. Try again.",
		RU: "⚠️ Что-то пошло не так. Попробуйте ещё раз.",
		ZH: "⚠️ 出错了，请重试。",
	},
	NotAllowed: {
		EN: "⛔ Not allowed.",
		RU: "⛔ Недоступно.",
		ZH: "⛔ 无权访问。",
	},
	AdminStats: {
		EN: "📊 <b>Stats</b>\n\nUsers: {users}\nActive subscriptions: {active_subs}\n\nSubscription history: {history_active} active / {history_expired} expired\nInvoices: {pending} pending / {confirmed} confirmed\nPollers: {pollers}",
		RU: "📊 <b>Статистика</b>\n\nПользователи: {users}\nАктивные подписки: {active_subs}\n\nИстория подписок: {history_active} активных / {history_expired} истёкших\nСчета: {pending} в ожидании / {confirmed} оплачено\nПоллеры: {pollers}",
		ZH: "📊 <b>统计</b>\n\n用户：{users}\n有效订阅：{active_subs}\n\n订阅记录：{history_active} 有效 / {history_expired} 已过期\n账单：{pending} 待支付 / {confirmed} 已确认\n轮询任务：{pollers}",
	},
}
